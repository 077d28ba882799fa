// Package monitor serves the pose decoder over HTTP.
//
// Routes:
//
//	POST /api/pose/decode          tensor envelope in, bodies JSON out
//	GET  /api/pose/frames?limit=   recent stored frames
//	GET  /debug/pose/heatmap?part= echarts heatmap of one channel of the last tensor
//	GET  /debug/pose/bodies        echarts scatter of the last decoded bodies
//	GET  /debug/pose/plots/{name}  debug PNGs written by the debug package
//	GET  /health
//
// When a store is configured the tsweb debugger and tailsql are mounted
// under /debug/ as well.
package monitor
