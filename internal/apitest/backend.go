// Package apitest provides an in-process fake of the platform backend for
// tests. It keeps all state in memory and signs real HS256 tokens.
package apitest

import (
	"fmt"
	"net/http/httptest"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"petpal/internal/api"
)

type account struct {
	user     api.User
	password string
}

type failure struct {
	status    int
	remaining int
}

// Backend is a fake REST backend
type Backend struct {
	mu       sync.Mutex
	secret   []byte
	now      func() time.Time
	tokenTTL time.Duration

	accounts map[string]*account // by email
	users    map[string]*api.User
	pets     map[string]*api.Pet
	posts    map[string]*api.Post
	comments map[string][]api.Comment
	uploads  map[string][]byte
	seq      int

	failures map[string]*failure
	gates    map[string]chan struct{}
	hits     map[string]int
}

// New creates an empty backend
func New() *Backend {
	gin.SetMode(gin.TestMode)
	return &Backend{
		secret:   []byte("apitest-secret"),
		now:      time.Now,
		tokenTTL: time.Hour,
		accounts: map[string]*account{},
		users:    map[string]*api.User{},
		pets:     map[string]*api.Pet{},
		posts:    map[string]*api.Post{},
		comments: map[string][]api.Comment{},
		uploads:  map[string][]byte{},
		failures: map[string]*failure{},
		gates:    map[string]chan struct{}{},
		hits:     map[string]int{},
	}
}

// Server starts the backend on a loopback listener
func (b *Backend) Server() *httptest.Server {
	return httptest.NewServer(b.Router())
}

// SetTokenTTL changes the lifetime of tokens issued from now on
func (b *Backend) SetTokenTTL(ttl time.Duration) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.tokenTTL = ttl
}

// AddUser registers an account and returns its user
func (b *Backend) AddUser(name, email, password string) api.User {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.addUserLocked(name, email, password)
}

func (b *Backend) addUserLocked(name, email, password string) api.User {
	u := api.User{
		ID:        b.nextID("u"),
		Name:      name,
		Email:     email,
		CreatedAt: b.now(),
	}
	b.accounts[email] = &account{user: u, password: password}
	b.users[u.ID] = &u
	return u
}

// IssueToken signs a bearer token for userID
func (b *Backend) IssueToken(userID string) string {
	b.mu.Lock()
	ttl := b.tokenTTL
	b.mu.Unlock()
	return b.sign(userID, ttl)
}

func (b *Backend) sign(userID string, ttl time.Duration) string {
	now := b.now()
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": userID,
		"iat": now.Unix(),
		"exp": now.Add(ttl).Unix(),
	}).SignedString(b.secret)
	if err != nil {
		panic(fmt.Sprintf("apitest: sign token: %v", err))
	}
	return tok
}

// AddPet stores a listing, filling in id and timestamps
func (b *Backend) AddPet(p api.Pet) api.Pet {
	b.mu.Lock()
	defer b.mu.Unlock()
	if p.ID == "" {
		p.ID = b.nextID("pet")
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = b.now()
	}
	if p.Loves == nil {
		p.Loves = []string{}
	}
	if p.Status == "" {
		p.Status = "available"
	}
	b.pets[p.ID] = &p
	return p
}

// AddPost stores a post, filling in id and timestamps
func (b *Backend) AddPost(p api.Post) api.Post {
	b.mu.Lock()
	defer b.mu.Unlock()
	if p.ID == "" {
		p.ID = b.nextID("post")
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = b.now()
	}
	if p.Likes == nil {
		p.Likes = []string{}
	}
	b.posts[p.ID] = &p
	return p
}

// Pet returns the stored listing
func (b *Backend) Pet(id string) (api.Pet, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	p, ok := b.pets[id]
	if !ok {
		return api.Pet{}, false
	}
	return *p, true
}

// Post returns the stored post
func (b *Backend) Post(id string) (api.Post, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	p, ok := b.posts[id]
	if !ok {
		return api.Post{}, false
	}
	return *p, true
}

// Upload returns bytes stored through a presigned URL
func (b *Backend) Upload(key string) ([]byte, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	data, ok := b.uploads[key]
	return data, ok
}

// FailNext makes the next n requests to route answer status. Routes are
// written as "METHOD /full/:path".
func (b *Backend) FailNext(route string, status, n int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.failures[route] = &failure{status: status, remaining: n}
}

// Hold makes requests to route wait until the returned function is called
func (b *Backend) Hold(route string) (release func()) {
	ch := make(chan struct{})
	b.mu.Lock()
	b.gates[route] = ch
	b.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			b.mu.Lock()
			delete(b.gates, route)
			b.mu.Unlock()
			close(ch)
		})
	}
}

// Hits returns how many requests reached route
func (b *Backend) Hits(route string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.hits[route]
}

func (b *Backend) nextID(prefix string) string {
	b.seq++
	return prefix + "-" + strconv.Itoa(b.seq)
}

func newKey() string {
	return uuid.NewString()
}

func sortedPets(m map[string]*api.Pet) []api.Pet {
	out := make([]api.Pet, 0, len(m))
	for _, p := range m {
		out = append(out, *p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func sortedPosts(m map[string]*api.Post) []api.Post {
	out := make([]api.Post, 0, len(m))
	for _, p := range m {
		out = append(out, *p)
	}
	// newest first, id as tie-break
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID > out[j].ID
	})
	return out
}
