// Package cachestat turns the entries of a package cache into per-package
// disk usage summaries.
//
// Each entry of a cache root (one extracted package version, archive or
// clone) is measured with the probe package, reduced to an identity by
// dropping the trailing version segment of its name, and folded into
// Summaries which are ranked by total size.
package cachestat
