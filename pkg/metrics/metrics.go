package metrics

import (
	"sync/atomic"
)

type Metrics struct {
	gatewayReads       int64
	gatewayWrites      int64
	gatewayFailures    int64
	demoFallbacks      int64
	breakerRejections  int64
	chaptersSaved      int64
	partialSaves       int64
	activeReaders      int64
	activeEditors      int64
	websocketClients   int64
	refreshesPublished int64
}

var global = &Metrics{}

func IncrementGatewayReads()      { atomic.AddInt64(&global.gatewayReads, 1) }
func IncrementGatewayWrites()     { atomic.AddInt64(&global.gatewayWrites, 1) }
func IncrementGatewayFailures()   { atomic.AddInt64(&global.gatewayFailures, 1) }
func IncrementDemoFallbacks()     { atomic.AddInt64(&global.demoFallbacks, 1) }
func IncrementBreakerRejections() { atomic.AddInt64(&global.breakerRejections, 1) }
func IncrementChaptersSaved()     { atomic.AddInt64(&global.chaptersSaved, 1) }
func IncrementPartialSaves()      { atomic.AddInt64(&global.partialSaves, 1) }
func IncrementRefreshes()         { atomic.AddInt64(&global.refreshesPublished, 1) }

func SetActiveReaders(count int64)    { atomic.StoreInt64(&global.activeReaders, count) }
func SetActiveEditors(count int64)    { atomic.StoreInt64(&global.activeEditors, count) }
func SetWebsocketClients(count int64) { atomic.StoreInt64(&global.websocketClients, count) }

func GetGatewayReads() int64      { return atomic.LoadInt64(&global.gatewayReads) }
func GetGatewayWrites() int64     { return atomic.LoadInt64(&global.gatewayWrites) }
func GetGatewayFailures() int64   { return atomic.LoadInt64(&global.gatewayFailures) }
func GetDemoFallbacks() int64     { return atomic.LoadInt64(&global.demoFallbacks) }
func GetBreakerRejections() int64 { return atomic.LoadInt64(&global.breakerRejections) }
func GetChaptersSaved() int64     { return atomic.LoadInt64(&global.chaptersSaved) }
func GetPartialSaves() int64      { return atomic.LoadInt64(&global.partialSaves) }
func GetRefreshes() int64         { return atomic.LoadInt64(&global.refreshesPublished) }
func GetActiveReaders() int64     { return atomic.LoadInt64(&global.activeReaders) }
func GetActiveEditors() int64     { return atomic.LoadInt64(&global.activeEditors) }
func GetWebsocketClients() int64  { return atomic.LoadInt64(&global.websocketClients) }

// Snapshot returns every counter keyed by its exported name.
func Snapshot() map[string]int64 {
	return map[string]int64{
		"gateway_reads_total":      GetGatewayReads(),
		"gateway_writes_total":     GetGatewayWrites(),
		"gateway_failures_total":   GetGatewayFailures(),
		"demo_fallbacks_total":     GetDemoFallbacks(),
		"breaker_rejections_total": GetBreakerRejections(),
		"chapters_saved_total":     GetChaptersSaved(),
		"partial_saves_total":      GetPartialSaves(),
		"refreshes_published":      GetRefreshes(),
		"active_readers":           GetActiveReaders(),
		"active_editors":           GetActiveEditors(),
		"websocket_clients":        GetWebsocketClients(),
	}
}

func Reset() {
	*global = Metrics{}
}
