// Package crawl implements the crawl core: a mutex-guarded frontier that
// owns all shared run state, and a fixed-size worker pool that drains it.
//
// The Frontier is the single source of truth for pending URLs, the visited
// set, and accepted results. Workers never talk to each other; every
// coordination point is a compound atomic operation on the Frontier so
// check-then-act races cannot occur. A run ends when the frontier reports
// quiescence (nothing pending and nothing in flight) or the page cap is hit.
package crawl
