package main

import (
	"chat-relay/infrastructure/storage"
	"chat-relay/internal"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"

	"github.com/dgraph-io/badger/v4"
	"github.com/olekukonko/tablewriter"
)

func main() {
	dbPath := flag.String("db", "./data/badger", "Path to badger DB")
	prefix := flag.String("prefix", "", "Key prefix to scan (identity:, conversation:, message:)")
	addr := flag.String("http", "", "Serve an HTML view on this address instead of printing a table")
	flag.Parse()

	db, err := badger.Open(badger.DefaultOptions(*dbPath).
		WithReadOnly(true).
		WithLoggingLevel(badger.WARNING))
	if err != nil {
		log.Fatal("Error while opening Badger: ", err)
	}
	defer db.Close()

	if *addr != "" {
		fmt.Printf("Inspect page on http://%s/?prefix=%s\n", *addr, *prefix)
		log.Fatal(http.ListenAndServe(*addr, internal.NewInspectHandler(db)))
	}

	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"Key", "Kind", "Created", "Detail"})
	table.SetAutoWrapText(false)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetCenterSeparator("")
	table.SetColumnSeparator("")
	table.SetRowSeparator("")
	table.SetHeaderLine(false)
	table.SetBorder(false)
	table.SetTablePadding("\t")

	count := 0
	err = storage.Scan(db, *prefix, func(r storage.Record) error {
		count++
		row := internal.ToInspectRow(r)
		table.Append([]string{row.Key, row.Kind, row.Created, row.Detail})
		return nil
	})
	if err != nil {
		log.Fatal("Error while scanning: ", err)
	}

	table.Render()
	fmt.Printf("\n%d records\n", count)
}
