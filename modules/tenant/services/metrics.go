package services

// Metrics receives resolution and authorization outcomes.
type Metrics interface {
	ObserveResolution(source string)
	ObserveDenial(check string)
}

type NoopMetrics struct{}

func (NoopMetrics) ObserveResolution(string) {}
func (NoopMetrics) ObserveDenial(string)     {}
