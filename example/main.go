package main

import (
	"fmt"
	"log"

	vcdiff "github.com/deltastream/vcdiff-go"
)

func main() {
	source := []byte("Hello, World!")

	// A trivial delta: no source reference, just a literal ADD of a new
	// string, using the default code table's opcode 14 (ADD size 13).
	delta := []byte{
		0xd6, 0xc3, 0xc4, 0x00, 0x00, // header: magic, version 0, indicator 0
		0x00,       // window indicator: no source, no target
		0x13,       // length of delta encoding (19 bytes follow)
		0x0d,       // target window size: 13
		0x00,       // delta indicator: no secondary compression
		0x0d,       // data section length: 13
		0x01,       // instructions section length: 1
		0x00,       // address section length: 0
	}
	delta = append(delta, "Hi, VCDIFF!!!"...)
	delta = append(delta, 0x0e) // instruction: opcode 14, ADD size 13

	decoder := vcdiff.NewDecoder(source)
	result, err := decoder.Decode(delta)
	if err != nil {
		log.Fatalf("failed to decode: %v", err)
	}
	fmt.Printf("Source: %q\n", source)
	fmt.Printf("Result: %q\n", result)

	// The streaming form lets a caller deliver the same delta in pieces.
	sd := vcdiff.NewStreamingDecoder()
	if err := sd.Start(source); err != nil {
		log.Fatalf("failed to start streaming decoder: %v", err)
	}
	sink := &vcdiff.BufferSink{}
	for _, chunk := range chunksOf(delta, 4) {
		if err := sd.DecodeChunk(chunk, sink); err != nil {
			log.Fatalf("failed to decode chunk: %v", err)
		}
	}
	if err := sd.Finish(); err != nil {
		log.Fatalf("failed to finish streaming decode: %v", err)
	}
	fmt.Printf("Streamed result: %q\n", sink.Bytes())
}

func chunksOf(data []byte, size int) [][]byte {
	var chunks [][]byte
	for i := 0; i < len(data); i += size {
		end := i + size
		if end > len(data) {
			end = len(data)
		}
		chunks = append(chunks, data[i:end])
	}
	return chunks
}
