package views

import (
	"context"
	"net/http"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"petpal/internal/api"
	"petpal/internal/apitest"
	"petpal/internal/notify"
	"petpal/internal/optimistic"
	"petpal/internal/session"
	"petpal/internal/tokenstore"
)

type testEnv struct {
	backend  *apitest.Backend
	client   *api.Client
	sessions *session.Manager
	rec      *notify.Recorder
	user     api.User
	skew     atomic.Int64
}

func newEnv(t *testing.T, signedIn bool) *testEnv {
	t.Helper()
	ctx := context.Background()

	b := apitest.New()
	srv := b.Server()
	t.Cleanup(srv.Close)

	e := &testEnv{backend: b, rec: notify.NewRecorder()}
	e.sessions = session.NewManager(ctx, tokenstore.NewMemoryStore(),
		session.WithClock(func() time.Time { return time.Now().Add(time.Duration(e.skew.Load())) }),
	)
	e.user = b.AddUser("Ana", "ana@example.com", "secret1")
	if signedIn {
		_, err := e.sessions.Login(ctx, b.IssueToken(e.user.ID))
		require.NoError(t, err)
	}

	e.client = api.NewClient(srv.URL,
		api.WithTokenSource(e.sessions),
		api.WithUnauthorizedHandler(e.sessions.Logout),
	)
	return e
}

// advance moves the session clock forward
func (e *testEnv) advance(d time.Duration) {
	e.skew.Add(int64(d))
}

func (e *testEnv) deps() BoardDeps {
	return BoardDeps{Sessions: e.sessions, Notifier: e.rec}
}

type fakeAuth struct{ loading, authed bool }

func (f fakeAuth) Loading() bool         { return f.loading }
func (f fakeAuth) IsAuthenticated() bool { return f.authed }

func TestGate(t *testing.T) {
	assert.ErrorIs(t, NewGate(fakeAuth{loading: true}).Require(), ErrLoading)
	assert.ErrorIs(t, NewGate(fakeAuth{}).Require(), session.ErrSignInRequired)
	assert.NoError(t, NewGate(fakeAuth{authed: true}).Require())
}

func TestPostFeed_LikeHappyPath(t *testing.T) {
	e := newEnv(t, true)
	ctx := context.Background()
	post := e.backend.AddPost(api.Post{AuthorID: "someone", Caption: "Rex", ImageURL: "https://img/rex.jpg"})

	feed := NewPostFeed(e.client, 0, 0, e.deps())
	require.NoError(t, feed.Mount(ctx))
	d, ok := feed.Display(post.ID)
	require.True(t, ok)
	assert.Equal(t, optimistic.Display{Active: false, Count: 0}, d)

	const route = "PUT /api/posts/:id/like"
	release := e.backend.Hold(route)
	done := make(chan optimistic.Outcome, 1)
	go func() { done <- feed.Toggle(ctx, post.ID) }()

	require.Eventually(t, func() bool { return e.backend.Hits(route) == 1 }, 2*time.Second, 5*time.Millisecond)
	d, _ = feed.Display(post.ID)
	assert.Equal(t, optimistic.Display{Active: true, Count: 1}, d, "optimistic state before the server answers")

	release()
	out := <-done
	assert.Equal(t, optimistic.Confirmed, out.Result)
	d, _ = feed.Display(post.ID)
	assert.Equal(t, optimistic.Display{Active: true, Count: 1}, d)

	stored, _ := e.backend.Post(post.ID)
	assert.Equal(t, []string{e.user.ID}, stored.Likes)
	assert.Empty(t, e.rec.All())
}

func TestPostFeed_LikeRejected(t *testing.T) {
	e := newEnv(t, true)
	ctx := context.Background()
	post := e.backend.AddPost(api.Post{AuthorID: "someone", ImageURL: "https://img/rex.jpg"})

	feed := NewPostFeed(e.client, 0, 0, e.deps())
	require.NoError(t, feed.Mount(ctx))

	e.backend.FailNext("PUT /api/posts/:id/like", http.StatusInternalServerError, 1)
	out := feed.Toggle(ctx, post.ID)

	assert.Equal(t, optimistic.RolledBack, out.Result)
	d, _ := feed.Display(post.ID)
	assert.Equal(t, optimistic.Display{Active: false, Count: 0}, d)

	last, ok := e.rec.Last()
	require.True(t, ok)
	assert.Equal(t, notify.LevelError, last.Level)
	assert.Equal(t, http.StatusInternalServerError, api.StatusCode(last.Err))
}

func TestPetBoard_ServerWins(t *testing.T) {
	e := newEnv(t, true)
	ctx := context.Background()
	// another member already loves this pet
	pet := e.backend.AddPet(api.Pet{Name: "Rex", Species: "dog", Loves: []string{"u-other"}})

	board := NewPetBoard(e.client, api.PetFilter{}, e.deps())
	require.NoError(t, board.Mount(ctx))

	items := board.Items()
	require.Len(t, items, 1)
	assert.Equal(t, "Rex", items[0].Entity.Name)
	assert.Equal(t, optimistic.Display{Active: false, Count: 1}, items[0].Display)

	out := board.Toggle(ctx, pet.ID)
	require.Equal(t, optimistic.Confirmed, out.Result)
	assert.Equal(t, optimistic.Display{Active: true, Count: 2}, out.Display)

	out = board.Toggle(ctx, pet.ID)
	require.Equal(t, optimistic.Confirmed, out.Result)
	assert.Equal(t, optimistic.Display{Active: false, Count: 1}, out.Display)
}

func TestBoard_SignedOut(t *testing.T) {
	e := newEnv(t, false)
	ctx := context.Background()
	pet := e.backend.AddPet(api.Pet{Name: "Rex", Species: "dog"})

	board := NewPetBoard(e.client, api.PetFilter{}, e.deps())
	require.NoError(t, board.Mount(ctx))

	out := board.Toggle(ctx, pet.ID)
	assert.Equal(t, optimistic.SignInRequired, out.Result)
	assert.Zero(t, e.backend.Hits("PUT /api/pets/:id/love"))

	_, ok := e.rec.Last()
	assert.True(t, ok)
}

func TestPostFeed_ExpiredSessionNeedsSignIn(t *testing.T) {
	e := newEnv(t, true)
	ctx := context.Background()
	post := e.backend.AddPost(api.Post{AuthorID: "someone", ImageURL: "https://img/rex.jpg"})

	feed := NewPostFeed(e.client, 0, 0, e.deps())
	require.NoError(t, feed.Mount(ctx))

	e.advance(48 * time.Hour)
	out := feed.Toggle(ctx, post.ID)

	assert.Equal(t, optimistic.SignInRequired, out.Result)
	assert.ErrorIs(t, out.Err, session.ErrSignInRequired)
	assert.Zero(t, e.backend.Hits("PUT /api/posts/:id/like"))
	assert.Equal(t, session.StateUnauthenticated, e.sessions.State())

	d, _ := feed.Display(post.ID)
	assert.Equal(t, optimistic.Display{Active: false, Count: 0}, d)

	last, ok := e.rec.Last()
	require.True(t, ok)
	assert.Equal(t, notify.LevelInfo, last.Level)
	assert.Equal(t, "Sign in required", last.Title)
}

func TestBoard_UnknownEntity(t *testing.T) {
	e := newEnv(t, true)
	board := NewPetBoard(e.client, api.PetFilter{}, e.deps())
	require.NoError(t, board.Mount(context.Background()))

	out := board.Toggle(context.Background(), "missing")
	assert.ErrorIs(t, out.Err, ErrUnknownEntity)
}

func TestBoard_UnmountDiscardsLateResponse(t *testing.T) {
	e := newEnv(t, true)
	e.backend.AddPet(api.Pet{Name: "Rex", Species: "dog"})

	const route = "GET /api/pets"
	release := e.backend.Hold(route)
	board := NewPetBoard(e.client, api.PetFilter{}, e.deps())

	done := make(chan error, 1)
	go func() { done <- board.Mount(context.Background()) }()
	require.Eventually(t, func() bool { return e.backend.Hits(route) == 1 }, 2*time.Second, 5*time.Millisecond)

	board.Unmount()
	release()

	assert.NoError(t, <-done)
	assert.Empty(t, board.Items())
}

func TestBoard_MountFailureNotifies(t *testing.T) {
	e := newEnv(t, true)
	e.backend.FailNext("GET /api/posts", http.StatusBadGateway, 1)

	feed := NewPostFeed(e.client, 0, 0, e.deps())
	err := feed.Mount(context.Background())
	require.Error(t, err)
	assert.Equal(t, http.StatusBadGateway, api.StatusCode(err))

	last, ok := e.rec.Last()
	require.True(t, ok)
	assert.Contains(t, last.Message, "posts")
}

func TestThread(t *testing.T) {
	e := newEnv(t, true)
	ctx := context.Background()
	post := e.backend.AddPost(api.Post{AuthorID: "someone", ImageURL: "https://img/rex.jpg"})

	th := NewThread(post.ID, e.client, e.sessions, e.rec, nil)
	require.NoError(t, th.Mount(ctx))
	assert.Empty(t, th.Comments())

	_, err := th.Add(ctx, "   ")
	assert.Error(t, err)

	cm, err := th.Add(ctx, "what a good boy")
	require.NoError(t, err)
	require.Len(t, th.Comments(), 1)

	require.NoError(t, th.Remove(ctx, cm.ID))
	assert.Empty(t, th.Comments())

	err = th.Remove(ctx, cm.ID)
	assert.True(t, api.IsNotFound(err))
	last, _ := e.rec.Last()
	assert.Equal(t, notify.LevelError, last.Level)
}

func TestThread_LengthCountsCharacters(t *testing.T) {
	e := newEnv(t, true)
	ctx := context.Background()
	post := e.backend.AddPost(api.Post{AuthorID: "someone", ImageURL: "https://img/rex.jpg"})

	th := NewThread(post.ID, e.client, e.sessions, e.rec, nil)
	require.NoError(t, th.Mount(ctx))

	// four bytes per character
	body := strings.Repeat("🐶", MaxCommentLength)
	cm, err := th.Add(ctx, body)
	require.NoError(t, err)
	assert.Equal(t, body, cm.Body)

	_, err = th.Add(ctx, body+"!")
	assert.EqualError(t, err, "comment too long (max 500 characters)")
	assert.Len(t, th.Comments(), 1)
}

func TestThread_ExpiredSessionNeedsSignIn(t *testing.T) {
	e := newEnv(t, true)
	post := e.backend.AddPost(api.Post{AuthorID: "someone", ImageURL: "https://img/rex.jpg"})

	th := NewThread(post.ID, e.client, e.sessions, e.rec, nil)
	e.advance(48 * time.Hour)

	_, err := th.Add(context.Background(), "hello")
	assert.ErrorIs(t, err, session.ErrSignInRequired)
	assert.Zero(t, e.backend.Hits("POST /api/posts/:id/comments"))
}

func TestThread_SignInRequired(t *testing.T) {
	e := newEnv(t, false)
	post := e.backend.AddPost(api.Post{AuthorID: "someone", ImageURL: "https://img/rex.jpg"})

	th := NewThread(post.ID, e.client, e.sessions, e.rec, nil)
	_, err := th.Add(context.Background(), "hello")
	assert.ErrorIs(t, err, session.ErrSignInRequired)
}

func TestProfileHub(t *testing.T) {
	e := newEnv(t, true)
	ctx := context.Background()
	mine := e.backend.AddPet(api.Pet{Name: "Rex", Species: "dog", OwnerID: e.user.ID})
	fav := e.backend.AddPet(api.Pet{Name: "Tom", Species: "cat", OwnerID: "someone", Loves: []string{e.user.ID}})

	hub := NewProfileHub(NewGate(e.sessions), e.client, e.rec, nil)
	p, err := hub.Load(ctx)
	require.NoError(t, err)

	assert.Equal(t, e.user.ID, p.User.ID)
	require.Len(t, p.Listings, 1)
	assert.Equal(t, mine.ID, p.Listings[0].ID)
	require.Len(t, p.Favorites, 1)
	assert.Equal(t, fav.ID, p.Favorites[0].ID)
}

func TestProfileHub_SignedOut(t *testing.T) {
	e := newEnv(t, false)
	hub := NewProfileHub(NewGate(e.sessions), e.client, e.rec, nil)

	_, err := hub.Load(context.Background())
	assert.ErrorIs(t, err, session.ErrSignInRequired)
}

func TestUnauthorizedLogsOut(t *testing.T) {
	e := newEnv(t, true)
	e.backend.FailNext("GET /api/users/me", http.StatusUnauthorized, 1)

	hub := NewProfileHub(NewGate(e.sessions), e.client, e.rec, nil)
	_, err := hub.Load(context.Background())
	require.Error(t, err)
	assert.False(t, e.sessions.IsAuthenticated())
}
