// Package components assembles the three interdependent subsystems of
// a node (transaction pool, peer network, payload service) in a fixed
// dependency order.
//
// A [Builder] holds one slot per subsystem.  Slots are filled with the
// package-level With* functions, each returning a new builder value:
//
//	b := components.New()
//	b1 := components.WithNodeTypes[node.Full](b)
//	b2 := components.WithPool[*txpool.Pool](b1, txpool.Builder[node.Full]{})
//	b3 := components.WithNetwork[*network.Handle](b2, network.Builder[node.Full]{})
//	b4 := components.WithPayload[*payload.Handle](b3, payload.Builder[node.Full]{})
//
// The ordering is checked by the compiler.  WithNetwork and WithPayload
// only accept a builder whose pool slot satisfies [PoolBuilder], and
// the network or payload builder must accept the exact pool type that
// slot produces.  [Build] (or [Finish]) runs the stages pool, network,
// payload strictly in sequence and yields [Components] only when all
// three succeed.
package components
