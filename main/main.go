package main

import (
	"bytes"
	"log"
	"net/http"
	_ "net/http/pprof"
	"os"
	"runtime"
	"runtime/pprof"
	"time"

	"github.com/rawbytedev/zosdatum"
	"github.com/rawbytedev/zosdatum/pkg/layout"
	"github.com/rawbytedev/zosdatum/pkg/numeric"
)

// Profiles a heap of decoded records. Serves pprof on :6060 for five
// minutes after writing mem.prof.
func main() {
	go func() {
		log.Println(http.ListenAndServe("localhost:6060", nil))
	}()
	f, err := os.Create("mem.prof")
	if err != nil {
		log.Fatal(err)
	}
	defer f.Close()
	runtime.MemProfileRate = 1

	root := &layout.Composite{Name: "ORDER", Fields: []layout.Node{
		&layout.Primitive{Name: "ORDER-ID", Encoding: numeric.Zoned, Length: 8},
		&layout.Primitive{Name: "CUSTOMER", Encoding: numeric.Text, Length: 20, Trim: true},
		&layout.Primitive{Name: "LINE-COUNT", Encoding: numeric.Binary, Length: 2},
		&layout.Array{
			Name:        "LINES",
			Element:     &layout.Primitive{Name: "LINES", Encoding: numeric.Packed, Length: 5, FractionDigits: 2, Signed: true},
			MaxOccurs:   10,
			DependingOn: "LINE-COUNT",
		},
	}}

	record := []byte{0xF0, 0xF0, 0xF0, 0xF1, 0xF2, 0xF3, 0xF4, 0xF5}
	record = append(record, bytes.Repeat([]byte{0xC1}, 20)...)
	record = append(record, 0x00, 0x03)
	for range 3 {
		record = append(record, 0x00, 0x00, 0x12, 0x34, 0x5C)
	}
	n := len(record) + 4
	rdw := append([]byte{byte(n >> 8), byte(n), 0, 0}, record...)
	stream := bytes.Repeat(rdw, 10000)

	r, err := zosdatum.NewReader(
		zosdatum.NewSource(bytes.NewReader(stream), int64(len(stream))),
		root,
		zosdatum.Options{Framer: zosdatum.RDWFramer{}},
	)
	if err != nil {
		log.Fatal(err)
	}
	count := 0
	for _, err := range r.All() {
		if err != nil {
			log.Fatal(err)
		}
		count++
	}
	log.Printf("decoded %d records, %d bytes", count, r.BytesProcessed())
	pprof.WriteHeapProfile(f)
	time.Sleep(5 * time.Minute)
}
