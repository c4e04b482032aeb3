package metrics

import "github.com/prometheus/client_golang/prometheus"

// InstanceCounter reports the number of live instances.
type InstanceCounter interface {
	Len() int
}

// Collector implements prometheus.Collector to read live gauges at scrape time.
type Collector struct {
	instances InstanceCounter

	activeInstances *prometheus.Desc
}

// NewCollector creates a collector over the given registry.
func NewCollector(instances InstanceCounter) *Collector {
	return &Collector{
		instances: instances,
		activeInstances: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "", "instances_active"),
			"Current number of live model instances.",
			nil, nil,
		),
	}
}

// Describe implements prometheus.Collector.
func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.activeInstances
}

// Collect implements prometheus.Collector.
func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	n := 0
	if c.instances != nil {
		n = c.instances.Len()
	}
	ch <- prometheus.MustNewConstMetric(c.activeInstances, prometheus.GaugeValue, float64(n))
}
