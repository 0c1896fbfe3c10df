package components

// Unset marks an empty builder slot.  It satisfies none of the builder
// contracts, so a slot left Unset cannot be built.
type Unset struct{}

// Builder is an immutable staged configuration of the three component
// builders.  N is the node variant, P/Net/Pay are the component types
// the configured builders produce, and PB/NB/YB are the builder types
// held in the pool, network and payload slots.
type Builder[N, P, Net, Pay, PB, NB, YB any] struct {
	pool    PB
	network NB
	payload YB
}

// New returns a builder with every slot Unset.
func New() Builder[Unset, Unset, Unset, Unset, Unset, Unset, Unset] {
	return Builder[Unset, Unset, Unset, Unset, Unset, Unset, Unset]{}
}

// Pool returns the pool slot.
func (b Builder[N, P, Net, Pay, PB, NB, YB]) Pool() PB { return b.pool }

// Network returns the network slot.
func (b Builder[N, P, Net, Pay, PB, NB, YB]) Network() NB { return b.network }

// Payload returns the payload slot.
func (b Builder[N, P, Net, Pay, PB, NB, YB]) Payload() YB { return b.payload }

// WithNodeTypes retargets b at node variant T, keeping every slot.
func WithNodeTypes[T NodeTypes, N, P, Net, Pay, PB, NB, YB any](
	b Builder[N, P, Net, Pay, PB, NB, YB],
) Builder[T, P, Net, Pay, PB, NB, YB] {
	return Builder[T, P, Net, Pay, PB, NB, YB]{
		pool:    b.pool,
		network: b.network,
		payload: b.payload,
	}
}

// WithPool fills the pool slot with pb, which builds a P.  Any network
// or payload builder already configured stays in place and must still
// accept a P when the builder is finished.
func WithPool[P any, N NodeTypes, PB PoolBuilder[N, P], Net, Pay, OldP, OldPB, NB, YB any](
	b Builder[N, OldP, Net, Pay, OldPB, NB, YB], pb PB,
) Builder[N, P, Net, Pay, PB, NB, YB] {
	return Builder[N, P, Net, Pay, PB, NB, YB]{
		pool:    pb,
		network: b.network,
		payload: b.payload,
	}
}

// WithNetwork fills the network slot with nb, which builds a Net from
// the pool the pool slot produces.
func WithNetwork[Net any, N NodeTypes, P any, PB PoolBuilder[N, P], NB NetworkBuilder[N, P, Net], Pay, OldNet, OldNB, YB any](
	b Builder[N, P, OldNet, Pay, PB, OldNB, YB], nb NB,
) Builder[N, P, Net, Pay, PB, NB, YB] {
	return Builder[N, P, Net, Pay, PB, NB, YB]{
		pool:    b.pool,
		network: nb,
		payload: b.payload,
	}
}

// WithPayload fills the payload slot with yb, which starts a Pay
// service on the pool the pool slot produces.
func WithPayload[Pay any, N NodeTypes, P any, PB PoolBuilder[N, P], YB PayloadServiceBuilder[N, P, Pay], Net, NB, OldPay, OldYB any](
	b Builder[N, P, Net, OldPay, PB, NB, OldYB], yb YB,
) Builder[N, P, Net, Pay, PB, NB, YB] {
	return Builder[N, P, Net, Pay, PB, NB, YB]{
		pool:    b.pool,
		network: b.network,
		payload: yb,
	}
}

// MapPool replaces the pool slot with f(current).
func MapPool[N, P, Net, Pay, PB, NB, YB any](
	b Builder[N, P, Net, Pay, PB, NB, YB], f func(PB) PB,
) Builder[N, P, Net, Pay, PB, NB, YB] {
	b.pool = f(b.pool)
	return b
}

// MapNetwork replaces the network slot with f(current).
func MapNetwork[N, P, Net, Pay, PB, NB, YB any](
	b Builder[N, P, Net, Pay, PB, NB, YB], f func(NB) NB,
) Builder[N, P, Net, Pay, PB, NB, YB] {
	b.network = f(b.network)
	return b
}

// MapPayload replaces the payload slot with f(current).
func MapPayload[N, P, Net, Pay, PB, NB, YB any](
	b Builder[N, P, Net, Pay, PB, NB, YB], f func(YB) YB,
) Builder[N, P, Net, Pay, PB, NB, YB] {
	b.payload = f(b.payload)
	return b
}
