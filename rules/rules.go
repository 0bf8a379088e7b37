//go:build ruleguard

// Package gorules defines custom linter rules for the dashboard code base.
package gorules

import "github.com/quasilyte/go-ruleguard/dsl"

// ServiceLogger flags the standard log package outside main. Packages log
// through logging.ForService so every line carries its service name.
func ServiceLogger(m dsl.Matcher) {
	m.Import("log")

	m.Match(
		`log.Printf($*_)`,
		`log.Println($*_)`,
		`log.Print($*_)`,
		`log.Fatalf($*_)`,
		`log.Fatal($*_)`,
	).
		Where(!m.File().PkgPath.Matches(`^github\.com/ladyxxa/Web4$`)).
		Report("use the package logger from logging.ForService instead of the log package")
}

// ContextRequests flags outbound HTTP requests that cannot be canceled.
// Geocoding and forecast calls must stop when the caller gives up.
func ContextRequests(m dsl.Matcher) {
	m.Import("net/http")

	m.Match(`http.NewRequest($method, $url, $body)`).
		Report("use http.NewRequestWithContext so the request follows the caller's context").
		Suggest("http.NewRequestWithContext(ctx, $method, $url, $body)")

	m.Match(
		`http.Get($*_)`,
		`http.Post($*_)`,
		`http.Head($*_)`,
	).
		Report("package-level http helpers use no timeout or context; build a request with http.NewRequestWithContext")
}

// WaitGroupGo suggests sync.WaitGroup.Go over the manual Add/Done pattern.
func WaitGroupGo(m dsl.Matcher) {
	m.Match(
		`$wg.Add(1); go func() { defer $wg.Done(); $*body }()`,
	).
		Where(m["wg"].Type.Is("*sync.WaitGroup") || m["wg"].Type.Is("sync.WaitGroup")).
		Report("use $wg.Go(func() { $body }) instead of manual Add/Done pattern (Go 1.25+)").
		Suggest("$wg.Go(func() { $body })")
}

// DeferredTimeSince catches time.Since evaluated when defer is declared
// rather than when the function returns; metric durations come out zero.
func DeferredTimeSince(m dsl.Matcher) {
	m.Match(`defer $f(time.Since($t))`, `defer $f($*_, time.Since($t), $*_)`).
		Report("time.Since($t) is evaluated at the defer statement; wrap the call in a closure")
}
