package registry

import (
	"sort"
	"strings"
	"sync"
)

// MethodAny is the method key used when method matching is disabled or
// an endpoint is registered without an explicit method. Entries under it
// answer requests of every method.
const MethodAny = "ANY"

// Endpoint is one registered (method, path, body) entry.
type Endpoint struct {
	Method string
	Path   string
	Body   []byte
}

// Store is the shared path->body table. It is owned jointly by the
// control loop (writer) and the request dispatcher (readers): mutations
// hold the write lock only for the duration of a single call, lookups
// take the read lock so concurrent requests proceed in parallel.
//
// Paths are stored in a per-method segment trie so nested endpoints
// stay ordered and deletes can prune nodes that no longer carry bodies.
type Store struct {
	mu          sync.RWMutex
	matchMethod bool
	roots       map[string]*pathNode
	count       int
}

// New creates an empty store. When matchMethod is false every endpoint
// and every request collapse onto MethodAny, so all HTTP methods are
// served identically from one table. When true, entries registered with
// an explicit method only answer that method; method-less entries still
// match anything.
func New(matchMethod bool) *Store {
	return &Store{
		matchMethod: matchMethod,
		roots:       make(map[string]*pathNode),
	}
}

type pathNode struct {
	body     []byte
	present  bool
	children map[string]*pathNode
}

func (n *pathNode) isEmpty() bool {
	return !n.present && len(n.children) == 0
}

func (n *pathNode) walk(segs []string) *pathNode {
	cur := n
	for _, seg := range segs {
		next, ok := cur.children[seg]
		if !ok {
			return nil
		}
		cur = next
	}
	return cur
}

func (n *pathNode) walkOrCreate(segs []string) *pathNode {
	cur := n
	for _, seg := range segs {
		next, ok := cur.children[seg]
		if !ok {
			next = &pathNode{}
			if cur.children == nil {
				cur.children = make(map[string]*pathNode)
			}
			cur.children[seg] = next
		}
		cur = next
	}
	return cur
}

// deleteAt removes the body at segs and prunes empty nodes on the way
// back up. Returns (removed, whether this node is now prunable).
func (n *pathNode) deleteAt(segs []string) (bool, bool) {
	if len(segs) == 0 {
		removed := n.present
		n.present = false
		n.body = nil
		return removed, n.isEmpty()
	}
	child, ok := n.children[segs[0]]
	if !ok {
		return false, false
	}
	removed, prune := child.deleteAt(segs[1:])
	if prune {
		delete(n.children, segs[0])
	}
	return removed, n.isEmpty()
}

func (n *pathNode) collect(prefix, method string, out *[]Endpoint) {
	if n.present {
		path := prefix
		if path == "" {
			path = "/"
		}
		*out = append(*out, Endpoint{Method: method, Path: path, Body: n.body})
	}
	segs := make([]string, 0, len(n.children))
	for seg := range n.children {
		segs = append(segs, seg)
	}
	sort.Strings(segs)
	for _, seg := range segs {
		n.children[seg].collect(prefix+"/"+seg, method, out)
	}
}

// segments splits a path into its non-empty parts; "users" and
// "/users/" both address the same node as "/users".
func segments(path string) []string {
	parts := strings.Split(strings.Trim(path, "/"), "/")
	segs := parts[:0]
	for _, p := range parts {
		if p != "" {
			segs = append(segs, p)
		}
	}
	return segs
}

// NormalizePath returns the canonical leading-slash form of a path.
func NormalizePath(path string) string {
	segs := segments(path)
	if len(segs) == 0 {
		return "/"
	}
	return "/" + strings.Join(segs, "/")
}

func (s *Store) canonMethod(method string) string {
	if !s.matchMethod {
		return MethodAny
	}
	method = strings.ToUpper(strings.TrimSpace(method))
	if method == "" {
		return MethodAny
	}
	return method
}

// Upsert registers or replaces the body served at (method, path).
// Always succeeds; reports whether an existing entry was replaced.
func (s *Store) Upsert(method, path string, body []byte) bool {
	method = s.canonMethod(method)
	segs := segments(path)
	stored := append([]byte(nil), body...)

	s.mu.Lock()
	defer s.mu.Unlock()
	root, ok := s.roots[method]
	if !ok {
		root = &pathNode{}
		s.roots[method] = root
	}
	node := root.walkOrCreate(segs)
	updated := node.present
	node.body = stored
	node.present = true
	if !updated {
		s.count++
	}
	return updated
}

// Lookup resolves the body served at (method, path). Entries registered
// under MethodAny match regardless of the request method. Callers must
// not mutate the returned slice.
func (s *Store) Lookup(method, path string) ([]byte, bool) {
	segs := segments(path)

	s.mu.RLock()
	defer s.mu.RUnlock()
	tables := []string{s.canonMethod(method)}
	if tables[0] != MethodAny {
		tables = append(tables, MethodAny)
	}
	for _, m := range tables {
		root, ok := s.roots[m]
		if !ok {
			continue
		}
		if node := root.walk(segs); node != nil && node.present {
			return node.body, true
		}
	}
	return nil, false
}

// Remove deletes the entry at (method, path), pruning trie nodes left
// empty. Reports whether an entry existed; removing an absent path is a
// normal "not found" outcome, not an error.
func (s *Store) Remove(method, path string) bool {
	method = s.canonMethod(method)
	segs := segments(path)

	s.mu.Lock()
	defer s.mu.Unlock()
	root, ok := s.roots[method]
	if !ok {
		return false
	}
	removed, prune := root.deleteAt(segs)
	if prune {
		delete(s.roots, method)
	}
	if removed {
		s.count--
	}
	return removed
}

// List enumerates registered endpoints sorted by method then path. An
// empty method returns everything; listing an empty store returns an
// empty slice, never an error.
func (s *Store) List(method string) []Endpoint {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var filter string
	if strings.TrimSpace(method) != "" {
		filter = s.canonMethod(method)
	}
	methods := make([]string, 0, len(s.roots))
	for m := range s.roots {
		if filter != "" && m != filter {
			continue
		}
		methods = append(methods, m)
	}
	sort.Strings(methods)

	out := make([]Endpoint, 0, s.count)
	for _, m := range methods {
		s.roots[m].collect("", m, &out)
	}
	return out
}

// Len reports the number of registered endpoints.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.count
}
