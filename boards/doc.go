// Package boards carries the per-chip memory maps consumed at system
// init: DMA channel register bases and serial peripheral data
// addresses. The maps live in an embedded YAML description rather than
// in code so that supporting a device never touches channel or
// transfer logic.
package boards
