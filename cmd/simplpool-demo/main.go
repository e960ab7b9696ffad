// Command simplpool-demo drives a small scripted sequence of allocator
// calls against an in-process buffer, for manual smoke testing. No test
// depends on it.
package main

import (
	"flag"
	"log"

	simplpool "github.com/Viisin/simpl"
)

func main() {
	size := flag.Int("size", 1<<20, "backing buffer size in bytes")
	flag.Parse()

	buf := make([]byte, *size)
	pool, err := simplpool.New(buf)
	if err != nil {
		log.Fatalf("simplpool: init failed: %v", err)
	}
	log.Printf("pool initialized: %d bytes available", pool.Available())

	a := pool.Malloc(64)
	if a == nil {
		log.Fatal("simplpool: malloc(64) failed")
	}
	log.Printf("allocated 64 bytes, %d available", pool.Available())

	b := pool.Realloc(a, 256)
	if b == nil {
		log.Fatal("simplpool: realloc(256) failed")
	}
	log.Printf("reallocated to 256 bytes, %d available", pool.Available())

	c := pool.Memalign(64, 128)
	if c == nil {
		log.Fatal("simplpool: memalign(64, 128) failed")
	}
	log.Printf("aligned allocation ok, %d available", pool.Available())

	pool.Free(b)
	pool.Free(c)
	log.Printf("freed all, %d available", pool.Available())
}
