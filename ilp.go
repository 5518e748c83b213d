// Package ilp implements a client for ingesting time-series rows into a
// database over the line-oriented wire protocol, using either an HTTP or a
// raw TCP transport, with optional TLS and authentication.
//
// Rows are accumulated in a binary-safe buffer through an ordered call
// chain and delivered to the server in large batches:
//
//	sender, _ := ilp.New(
//	    ilp.WithHTTP(),
//	    ilp.WithAddress("localhost:9000"),
//	)
//	defer sender.Close(ctx)
//
//	sender.Table("trades")
//	sender.Symbol("sym", "ETH-USD")
//	sender.Float64Column("price", 2615.54)
//	sender.At(ctx, time.Now())
//	sender.Flush(ctx)
//
// A Sender can also be built from a configuration string or the
// ILP_CLIENT_CONF environment variable:
//
//	sender, _ := ilp.NewFromConf("https::addr=localhost:9000;username=admin;password=quest;")
//
// Closing a row with At/AtNow consults the auto-flush policy: by default
// the buffer is flushed once it holds 75000 rows (HTTP) or 600 rows (TCP),
// or one second after the previous flush, whichever comes first. Flushing
// over HTTP retries transient failures with exponential backoff; flushing
// over TCP writes directly to the authenticated socket.
//
// # Ownership
//
// A Sender is single-owner: it must never be used by multiple goroutines
// concurrently. The row-building calls keep per-row state and use no
// internal locking. For concurrent producers, give each worker its own
// Sender, or use a SenderPool.
//
// # Delivery semantics
//
// Delivery is at-least-once: an HTTP flush that fails mid-retry may or may
// not have been applied by the server. When the retry budget is exhausted
// the returned FlushError carries the undelivered byte range so the caller
// can persist or re-send it.
package ilp
