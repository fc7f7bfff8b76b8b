package main

import (
	"fmt"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"

	"github.com/rl1809/warehouse-console/internal/adapter/gateway"
	"github.com/rl1809/warehouse-console/internal/console"
	"github.com/rl1809/warehouse-console/internal/core/domain"
)

// Races many composers for the last units of one product against a running inventoryd.
func main() {
	app := &cli.App{
		Name:  "stress_test",
		Usage: "race one-unit orders for a fresh product against inventoryd",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "api-url", Usage: "inventoryd base URL", Value: gateway.DefaultBaseURL},
			&cli.IntFlag{Name: "stock", Usage: "units to put on the shelf", Value: 20},
			&cli.IntFlag{Name: "requests", Usage: "concurrent one-unit orders", Value: 50},
		},
		Action: run,
	}
	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "stress_test:", err)
		os.Exit(1)
	}
}

func run(c *cli.Context) error {
	initialStock, totalRequests := c.Int("stock"), c.Int("requests")
	if initialStock < 0 || totalRequests < initialStock {
		return errors.Errorf("need 0 <= stock <= requests, got stock=%d requests=%d", initialStock, totalRequests)
	}

	log := logrus.New()
	log.SetLevel(logrus.WarnLevel)

	ctx := c.Context
	client, err := gateway.NewClient(c.String("api-url"), gateway.WithLogger(log), gateway.WithTimeout(10*time.Second))
	if err != nil {
		return errors.Wrap(err, "create client")
	}

	// Setup: a fresh product so reruns do not interfere
	product, err := client.CreateProduct(ctx, domain.Product{
		Name:            fmt.Sprintf("Stress Crate %d", time.Now().Unix()%1000),
		LocationCode:    "STRESS",
		QuantityInStock: initialStock,
	})
	if err != nil {
		return errors.Wrap(err, "create product")
	}

	composer := console.NewComposer(client, client, log)

	var successCount, stockoutCount, failCount atomic.Int32
	var wg sync.WaitGroup
	start := time.Now()

	for i := 0; i < totalRequests; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()

			// the pre-check may pass for many composers at once; create decides
			draft, err := composer.Add(ctx, console.Draft{}, product, 1)
			if err == nil {
				_, err = composer.Submit(ctx, draft)
			}
			switch {
			case err == nil:
				successCount.Add(1)
			case errors.Is(err, domain.ErrInsufficientStock):
				stockoutCount.Add(1)
			default:
				log.WithError(err).Warn("request failed")
				failCount.Add(1)
			}
		}()
	}

	wg.Wait()
	elapsed := time.Since(start)

	success := successCount.Load()
	stockout := stockoutCount.Load()

	fmt.Println("========== STRESS TEST RESULTS ==========")
	fmt.Printf("Product:          %s\n", product.SKU)
	fmt.Printf("Initial Stock:    %d\n", initialStock)
	fmt.Printf("Total Requests:   %d\n", totalRequests)
	fmt.Printf("Successful:       %d\n", success)
	fmt.Printf("Out of stock:     %d\n", stockout)
	fmt.Printf("Other failures:   %d\n", failCount.Load())
	fmt.Printf("Duration:         %v\n", elapsed)
	fmt.Println("==========================================")

	pass := true
	if success == int32(initialStock) && stockout == int32(totalRequests-initialStock) {
		fmt.Printf("PASS: Exactly %d orders succeeded\n", initialStock)
	} else {
		fmt.Printf("FAIL: Expected %d success/%d out of stock, got %d/%d\n",
			initialStock, totalRequests-initialStock, success, stockout)
		pass = false
	}

	final, err := client.GetProductBySKU(ctx, product.SKU)
	if err != nil {
		return errors.Wrap(err, "read back product")
	}
	fmt.Printf("Final Stock:      %d\n", final.QuantityInStock)
	if final.QuantityInStock == 0 {
		fmt.Println("PASS: Stock depleted to 0")
	} else {
		fmt.Printf("FAIL: Expected stock 0, got %d\n", final.QuantityInStock)
		pass = false
	}

	if !pass {
		return errors.New("stock invariants violated")
	}
	return nil
}
