package internal

import (
	"chat-relay/infrastructure/storage"
	"fmt"
	"html/template"
	"net/http"
	"strconv"
	"time"

	"github.com/dgraph-io/badger/v4"
)

var inspectTemplate = template.Must(template.New("inspect").Parse(`<!DOCTYPE html>
<html>
<head><meta charset="utf-8"><title>chat-relay inspect</title>
<style>body{font-family:monospace}td,th{padding:2px 12px;text-align:left}</style>
</head>
<body>
<form><input name="prefix" value="{{.Prefix}}" placeholder="identity:"> <button>scan</button></form>
<p>{{len .Items}} records{{if .Error}}, scan stopped: {{.Error}}{{end}}</p>
<table>
<tr><th>Key</th><th>Kind</th><th>Created</th><th>Detail</th></tr>
{{range .Items}}<tr><td>{{.Key}}</td><td>{{.Kind}}</td><td>{{.Created}}</td><td>{{.Detail}}</td></tr>
{{end}}</table>
</body>
</html>`))

// InspectRow is the printable form of one stored record.
type InspectRow struct {
	Key     string
	Kind    string
	Created string
	Detail  string
}

type PageData struct {
	Prefix string
	Items  []InspectRow
	Error  string
}

// NewInspectHandler serves an HTML listing of the records under the
// ?prefix= query parameter.
func NewInspectHandler(db *badger.DB) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data := PageData{Prefix: r.URL.Query().Get("prefix")}
		err := storage.Scan(db, data.Prefix, func(record storage.Record) error {
			data.Items = append(data.Items, ToInspectRow(record))
			return nil
		})
		if err != nil {
			data.Error = err.Error()
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_ = inspectTemplate.Execute(w, data)
	})
}

func ToInspectRow(r storage.Record) InspectRow {
	row := InspectRow{Key: r.Key, Kind: string(r.Kind)}
	switch r.Kind {
	case storage.KindIdentity:
		i := r.Identity
		row.Created = formatTime(i.CreatedAt)
		row.Detail = fmt.Sprintf("online=%t admin=%t", i.Online, i.Admin)
		if i.ConnectionID != "" {
			row.Detail += " connection=" + i.ConnectionID
		}
		if !i.LastSeen.IsZero() {
			row.Detail += " last_seen=" + formatTime(i.LastSeen)
		}
	case storage.KindConversation:
		c := r.Conversation
		row.Created = formatTime(c.CreatedAt)
		row.Detail = c.Participants[0] + " <-> " + c.Participants[1]
	case storage.KindMessage:
		m := r.Message
		row.Created = formatTime(m.CreatedAt)
		row.Detail = "#" + strconv.FormatUint(m.Seq, 10) + " " + m.Sender + " -> " + m.Receiver + ": " + truncate(m.Content, 60)
	}
	return row
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(time.RFC3339)
}

func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n]) + "..."
}
