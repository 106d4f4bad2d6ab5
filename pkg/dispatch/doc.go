// Package dispatch delivers BloodConnect notifications by email.
//
// A database trigger publishes {"id": "..."} on a LISTEN/NOTIFY channel each
// time a notification row is inserted. The Worker subscribes to that channel
// and hands every id to a Processor, which claims the pending row, sends the
// message through a RetryMailer and records the terminal state. A Sweeper
// replays rows that are still pending, so events published while the worker
// was down are delivered once it comes back.
//
// # Architecture
//
//	Subscriber -> Listener -> Worker.Dispatch -> Processor
//	                                               |- Store.Claim
//	                                               |- RetryMailer.Send
//	                                               `- Recorder.Record (Store.Record)
//	Sweeper (startup + interval) ----------------^
//
// Delivery is at-least-once. Claim and Record are single conditional
// statements; a claimed row carries a lease so that a live event and a sweep
// racing on one id produce a single send, and Record only ever moves a row out
// of the pending state.
//
// # Usage
//
//	store := dispatch.NewPostgresStore(pool)
//	sender, _ := email.New(emailCfg)
//	listener, _ := pg.NewListener(ctx, pgCfg)
//
//	w, err := dispatch.NewWorker(store, sender, listener,
//	    dispatch.WithConfig(cfg),
//	    dispatch.WithLogger(log),
//	)
//	if err != nil {
//	    return err
//	}
//	return w.Run(ctx)
//
// Run blocks until ctx is cancelled and then drains in-flight deliveries for up
// to Config.ShutdownTimeout. It returns ErrSubscriptionLost if the channel
// subscription fails while the worker is running.
package dispatch
