package context

type Key string

const (
	Claims Key = "claims"
	Actor  Key = "actor"
	Params Key = "params"
)
