package metrics

type Counter interface {
	Inc()

	Add(value float64)
}

type Observer interface {
	Observe(value float64)
}

type Factory interface {
	CreateCounter(name string, description string) (Counter, error)

	CreateObserver(name string, description string) (Observer, error)

	Start() error

	Stop() error
}
