// Command exchange-core is a small demo driver for the engine package: it
// opens a WAL-backed store, runs a handful of scripted order scenarios
// against one symbol, takes a snapshot, and (optionally) shows recovery
// by reopening the store and replaying. It is outside the core's scope
// (spec §1, §6 treat the driver program as an external collaborator) and
// exists only to exercise the library end to end.
package main

import (
	"flag"
	"fmt"
	"log"

	"github.com/adarshan/durable-matching-core/engine"
	"github.com/adarshan/durable-matching-core/matching"
	"github.com/adarshan/durable-matching-core/wal"
)

type stdoutBroadcaster struct{}

func (stdoutBroadcaster) Publish(topic string, message any) bool {
	fmt.Printf("📡 [%s] %+v\n", topic, message)
	return true
}

func main() {
	var (
		storePath     = flag.String("store", "exchange-core.db", "path to the WAL-backed store file")
		symbolName    = flag.String("symbol", "AAPL", "symbol to trade")
		snapshotEvery = flag.Uint64("snapshot-every", engine.DefaultSnapshotEvery, "fills between automatic snapshots")
		doRecover     = flag.Bool("recover", false, "recover from the existing store instead of running the demo scenarios")
	)
	flag.Parse()

	w, err := wal.Open(*storePath)
	if err != nil {
		log.Fatalf("open store: %v", err)
	}
	defer w.Close()

	symbol := matching.NewSymbol(1, *symbolName)
	eng := engine.New(symbol, w, stdoutBroadcaster{})
	eng.SnapshotEvery = *snapshotEvery

	if *doRecover {
		fmt.Println("--- Recovering from", *storePath, "---")
		if err := eng.Recover(); err != nil {
			log.Fatalf("recover: %v", err)
		}
		printBook(eng.Book())
		return
	}

	fmt.Println("===========================================")
	fmt.Println("    Durable Matching Core - Demo")
	fmt.Println("===========================================")

	fmt.Println("\n--- Scenario 1: Simple Match ---")
	must(eng.AddOrder(matching.OrderSideBuy, 100, 10))
	must(eng.AddOrder(matching.OrderSideSell, 100, 10))

	fmt.Println("\n--- Scenario 2: Partial Fill ---")
	must(eng.AddOrder(matching.OrderSideSell, 100, 10))
	must(eng.AddOrder(matching.OrderSideBuy, 100, 4))

	fmt.Println("\n--- Scenario 3: Price-Time Priority ---")
	first, _ := eng.AddOrder(matching.OrderSideBuy, 100, 5)
	second, _ := eng.AddOrder(matching.OrderSideBuy, 100, 5)
	must(eng.AddOrder(matching.OrderSideSell, 100, 7))
	fmt.Printf("first order id=%d, second order id=%d\n", first.ID, second.ID)

	fmt.Println("\n--- Scenario 4: No Cross ---")
	must(eng.AddOrder(matching.OrderSideBuy, 99, 10))
	must(eng.AddOrder(matching.OrderSideSell, 101, 10))

	fmt.Println("\n--- Scenario 5: Cancel ---")
	resting, _ := eng.AddOrder(matching.OrderSideBuy, 95, 10)
	if err := eng.CancelOrder(resting.ID); err != nil {
		fmt.Printf("cancel rejected: %v\n", err)
	}

	fmt.Println("\n--- Taking Snapshot ---")
	if err := eng.TakeSnapshot(); err != nil {
		log.Fatalf("snapshot: %v", err)
	}
	fmt.Printf("processed_count at snapshot: %d\n", eng.ProcessedCount())

	printBook(eng.Book())

	fmt.Println("\n===========================================")
	fmt.Println("    Demo Complete! Re-run with -recover to replay.")
	fmt.Println("===========================================")
}

func must(order matching.Order, err error) matching.Order {
	if err != nil {
		log.Fatalf("add order: %v", err)
	}
	return order
}

func printBook(book *matching.Book) {
	fmt.Println("\n--- Book State ---")
	book.ForEachResting(matching.OrderSideBuy, func(o matching.Order) bool {
		fmt.Printf("BID id=%d price=%d open=%d\n", o.ID, o.Price, o.OpenQty())
		return true
	})
	book.ForEachResting(matching.OrderSideSell, func(o matching.Order) bool {
		fmt.Printf("ASK id=%d price=%d open=%d\n", o.ID, o.Price, o.OpenQty())
		return true
	})
}
