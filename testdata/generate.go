package main

import (
	"log"
	"os"
	"path/filepath"

	"github.com/parquet-go/parquet-go"
)

// CategoryStats is one shard's answer to
//
//	SELECT cat, COUNT(*) AS c, AVG(price) AS p FROM t GROUP BY cat
//
// as rewritten for the shards by shardql -rewrite.
type CategoryStats struct {
	Cat   string `parquet:"cat"`
	C     int64  `parquet:"c"`
	P     string `parquet:"p"`
	Sum   int64  `parquet:"__sum_3"`
	Count int64  `parquet:"__count_4"`
}

func writeShard(dir, name string, rows []CategoryStats) {
	file, err := os.Create(filepath.Join(dir, name+".parquet"))
	if err != nil {
		log.Fatal(err)
	}
	defer file.Close()

	writer := parquet.NewGenericWriter[CategoryStats](file)
	if _, err := writer.Write(rows); err != nil {
		log.Fatal(err)
	}
	if err := writer.Close(); err != nil {
		log.Fatal(err)
	}
}

func main() {
	dir := "shards"
	if err := os.MkdirAll(dir, 0o755); err != nil {
		log.Fatal(err)
	}

	writeShard(dir, "eu-1", []CategoryStats{
		{Cat: "books", C: 2, P: "15.0000", Sum: 30, Count: 2},
		{Cat: "games", C: 1, P: "5.0000", Sum: 5, Count: 1},
	})
	writeShard(dir, "us-1", []CategoryStats{
		{Cat: "books", C: 3, P: "20.0000", Sum: 60, Count: 3},
	})

	log.Println("Generated shards/eu-1.parquet and shards/us-1.parquet")
}
