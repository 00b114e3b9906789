// Command client is a small CLI for manually exercising a running fenrir
// server: place, cancel, and replace orders, and print execution reports as
// they arrive. Ported from the teacher's cmd/client/client.go, adapted to
// the uint64-priced, condition-aware wire protocol in internal/wire.
package main

import (
	"encoding/binary"
	"flag"
	"fmt"
	"io"
	"log"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"fenrir/internal/matching"
	"fenrir/internal/wire"
)

func main() {
	serverAddr := flag.String("server", "127.0.0.1:9090", "address of the fenrir server")
	owner := flag.String("owner", "", "owner username (required)")
	symbol := flag.String("symbol", "FEN", "symbol to trade")
	action := flag.String("action", "place", "action: 'place', 'cancel', 'replace'")
	sideStr := flag.String("side", "buy", "order side: 'buy' or 'sell'")
	price := flag.Uint64("price", 100, "limit price (0 = market)")
	stopPrice := flag.Uint64("stop", 0, "stop trigger price (0 = not a stop order)")
	qtyStr := flag.String("qty", "10", "quantity, or comma-separated list (e.g. 10,20,50)")
	aon := flag.Bool("aon", false, "all-or-none")
	ioc := flag.Bool("ioc", false, "immediate-or-cancel")
	orderID := flag.String("id", "", "order id, required for cancel/replace")
	newPrice := flag.Uint64("new-price", 0, "replace: new price (0 = unchanged)")
	sizeDelta := flag.Int64("size-delta", 0, "replace: size delta")

	flag.Parse()

	if *owner == "" {
		fmt.Println("Error: -owner is required")
		flag.Usage()
		os.Exit(1)
	}

	conn, err := net.Dial("tcp", *serverAddr)
	if err != nil {
		log.Fatalf("failed to connect to %s: %v", *serverAddr, err)
	}
	defer conn.Close()
	fmt.Printf("connected to %s as %q\n", *serverAddr, *owner)

	go readReports(conn)

	buy := strings.EqualFold(*sideStr, "buy")

	switch strings.ToLower(*action) {
	case "place":
		for _, qty := range parseQuantities(*qtyStr) {
			msg := wire.NewOrderMessage{
				Buy:        buy,
				Conditions: conditionsFrom(*aon, *ioc),
				LimitPrice: matching.Price(*price),
				StopPrice:  matching.Price(*stopPrice),
				Quantity:   matching.Quantity(qty),
				Symbol:     *symbol,
				Owner:      *owner,
			}
			if err := send(conn, wire.NewOrder, encodeNewOrder(msg)); err != nil {
				log.Printf("failed to place order: %v", err)
				continue
			}
			fmt.Printf("-> placed %s %d @ %d\n", *sideStr, qty, *price)
			time.Sleep(5 * time.Millisecond)
		}
	case "cancel":
		if *orderID == "" {
			log.Fatal("Error: -id is required for cancel")
		}
		if err := send(conn, wire.CancelOrder, encodeCancel(buy, *orderID)); err != nil {
			log.Printf("failed to cancel: %v", err)
		} else {
			fmt.Printf("-> sent cancel for %s\n", *orderID)
		}
	case "replace":
		if *orderID == "" {
			log.Fatal("Error: -id is required for replace")
		}
		if err := send(conn, wire.ReplaceOrder, encodeReplace(buy, *orderID, *newPrice, *sizeDelta)); err != nil {
			log.Printf("failed to replace: %v", err)
		} else {
			fmt.Printf("-> sent replace for %s\n", *orderID)
		}
	default:
		log.Fatalf("unknown action: %s", *action)
	}

	fmt.Println("listening for reports... (ctrl-C to exit)")
	select {}
}

func conditionsFrom(aon, ioc bool) matching.OrderCondition {
	var c matching.OrderCondition
	if aon {
		c |= matching.AllOrNone
	}
	if ioc {
		c |= matching.ImmediateOrCancel
	}
	return c
}

func parseQuantities(input string) []uint64 {
	var out []uint64
	for _, p := range strings.Split(input, ",") {
		p = strings.TrimSpace(p)
		v, err := strconv.ParseUint(p, 10, 64)
		if err != nil {
			log.Printf("warning: invalid quantity %q, skipping", p)
			continue
		}
		out = append(out, v)
	}
	return out
}

func send(conn net.Conn, typ wire.MessageType, body []byte) error {
	buf := make([]byte, 2+len(body))
	binary.BigEndian.PutUint16(buf[0:2], uint16(typ))
	copy(buf[2:], body)
	_, err := conn.Write(buf)
	return err
}

func encodeNewOrder(m wire.NewOrderMessage) []byte {
	sym := []byte(m.Symbol)
	owner := []byte(m.Owner)
	buf := make([]byte, 1+1+8+8+8+1+len(sym)+1+len(owner))
	if m.Buy {
		buf[0] = 1
	}
	buf[1] = byte(m.Conditions)
	binary.BigEndian.PutUint64(buf[2:10], uint64(m.LimitPrice))
	binary.BigEndian.PutUint64(buf[10:18], uint64(m.StopPrice))
	binary.BigEndian.PutUint64(buf[18:26], uint64(m.Quantity))
	buf[26] = byte(len(sym))
	offset := 27
	offset += copy(buf[offset:], sym)
	buf[offset] = byte(len(owner))
	offset++
	copy(buf[offset:], owner)
	return buf
}

func encodeCancel(buy bool, id string) []byte {
	buf := make([]byte, 1+36)
	if buy {
		buf[0] = 1
	}
	copy(buf[1:], id)
	return buf
}

func encodeReplace(buy bool, id string, newPrice uint64, sizeDelta int64) []byte {
	buf := make([]byte, 1+36+8+8)
	if buy {
		buf[0] = 1
	}
	copy(buf[1:37], id)
	binary.BigEndian.PutUint64(buf[37:45], newPrice)
	binary.BigEndian.PutUint64(buf[45:53], uint64(sizeDelta))
	return buf
}

// readReports prints each wire.Report as it arrives. It re-derives the
// report's own length from the header fields, the same incremental
// fixed-then-variable read the teacher's client uses.
func readReports(conn net.Conn) {
	const idLen = 36
	const fixedLen = 1 + idLen + 8 + 8 + 2 + 2
	for {
		header := make([]byte, fixedLen)
		if _, err := io.ReadFull(conn, header); err != nil {
			if err != io.EOF {
				log.Printf("connection lost: %v", err)
			}
			os.Exit(0)
		}

		reportType := wire.ReportType(header[0])
		orderID := strings.TrimRight(string(header[1:1+idLen]), "\x00")
		qty := binary.BigEndian.Uint64(header[1+idLen : 9+idLen])
		price := binary.BigEndian.Uint64(header[9+idLen : 17+idLen])
		cpLen := binary.BigEndian.Uint16(header[17+idLen : 19+idLen])
		errLen := binary.BigEndian.Uint16(header[19+idLen : 21+idLen])

		var tail []byte
		if total := int(cpLen) + int(errLen); total > 0 {
			tail = make([]byte, total)
			if _, err := io.ReadFull(conn, tail); err != nil {
				log.Printf("error reading report body: %v", err)
				return
			}
		}
		counterparty := string(tail[:cpLen])
		errStr := string(tail[cpLen:])

		if errStr != "" {
			fmt.Printf("\n[%v] order=%s %s\n", reportType, orderID, errStr)
		} else {
			fmt.Printf("\n[%v] order=%s qty=%d price=%d counterparty=%s\n", reportType, orderID, qty, price, counterparty)
		}
	}
}
