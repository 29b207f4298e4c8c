package recorder

import "github.com/jonwraymond/tracewire/event"

// Health counters ride the pipeline itself: FlushAll republishes them as
// metric records on the shared stream, so a collector observes telemetry
// loss the same way it observes any other metric.
var (
	siteBlocksSent  = event.MetricSite("tracewire.blocks_sent", "{block}")
	siteBlocksLost  = event.MetricSite("tracewire.blocks_lost", "{block}")
	siteSendRetries = event.MetricSite("tracewire.send_retries", "{attempt}")
	siteSpanDefects = event.MetricSite("tracewire.span_nesting_defects", "{event}")
)

func (c *Core) publishHealth() {
	st := c.flusher.Stats()
	c.shared.Metric(siteBlocksSent, float64(st.Sent))
	c.shared.Metric(siteBlocksLost, float64(st.Lost))
	c.shared.Metric(siteSendRetries, float64(st.Retries))
	c.shared.Metric(siteSpanDefects, float64(c.spanDefects.Load()))
}
