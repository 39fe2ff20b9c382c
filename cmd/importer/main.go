package main

import (
	"flag"
	"fmt"
	"os"
	"strings"

	"storefront/internal/catalog"

	"go.uber.org/zap"
)

// Validates a catalog CSV before it is pointed at by CATALOG_FILE.
func main() {
	var filePath string
	flag.StringVar(&filePath, "file", "", "Path to catalog CSV file")
	flag.Parse()

	if filePath == "" {
		flag.Usage()
		os.Exit(2)
	}

	logger, _ := zap.NewDevelopment()
	defer logger.Sync()

	f, err := os.Open(filePath)
	if err != nil {
		logger.Fatal("open file", zap.Error(err))
	}
	defer f.Close()

	c, err := catalog.FromCSV(f)
	if err != nil {
		logger.Fatal("invalid catalog", zap.String("file", filePath), zap.Error(err))
	}

	for _, it := range c.List() {
		sizes := "-"
		if len(it.SizeVariants) > 0 {
			sizes = strings.Join(it.SizeVariants, ",")
		}
		fmt.Printf("%d\t%s\t%s\t%s\n", it.ID, it.Name, it.UnitPrice.StringFixed(2), sizes)
	}
	logger.Info("catalog valid", zap.Int("items", c.Len()))
}
