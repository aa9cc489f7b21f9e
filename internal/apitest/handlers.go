package apitest

import (
	"net/http"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"petpal/internal/api"
)

type signUpBody struct {
	Name     string `json:"name" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=6"`
}

type signInBody struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// POST /api/auth/signin
func (b *Backend) signIn(c *gin.Context) {
	var req signInBody
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid body"})
		return
	}

	b.mu.Lock()
	acc, ok := b.accounts[req.Email]
	b.mu.Unlock()
	if !ok || acc.password != req.Password {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid email or password"})
		return
	}

	user := acc.user
	c.JSON(http.StatusOK, api.AuthResponse{Token: b.IssueToken(user.ID), User: &user})
}

// POST /api/auth/signup
func (b *Backend) signUp(c *gin.Context) {
	var req signUpBody
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	b.mu.Lock()
	if _, exists := b.accounts[req.Email]; exists {
		b.mu.Unlock()
		c.JSON(http.StatusConflict, gin.H{"error": "email already registered"})
		return
	}
	user := b.addUserLocked(req.Name, req.Email, req.Password)
	b.mu.Unlock()

	c.JSON(http.StatusCreated, api.AuthResponse{Token: b.IssueToken(user.ID), User: &user})
}

// GET /api/users/me
func (b *Backend) me(c *gin.Context) {
	b.mu.Lock()
	u := *b.users[userID(c)]
	b.mu.Unlock()
	c.JSON(http.StatusOK, u)
}

// GET /api/users/:id
func (b *Backend) getUser(c *gin.Context) {
	b.mu.Lock()
	u, ok := b.users[c.Param("id")]
	var out api.User
	if ok {
		out = *u
		out.Email = ""
	}
	b.mu.Unlock()
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
		return
	}
	c.JSON(http.StatusOK, out)
}

// GET /api/users/me/favorites
func (b *Backend) favorites(c *gin.Context) {
	uid := userID(c)
	b.mu.Lock()
	out := []api.Pet{}
	for _, p := range sortedPets(b.pets) {
		if slices.Contains(p.Loves, uid) {
			out = append(out, p)
		}
	}
	b.mu.Unlock()
	c.JSON(http.StatusOK, out)
}

// GET /api/pets?species=&owner=&page=&limit=
func (b *Backend) listPets(c *gin.Context) {
	species := c.Query("species")
	owner := c.Query("owner")

	b.mu.Lock()
	out := []api.Pet{}
	for _, p := range sortedPets(b.pets) {
		if species != "" && p.Species != species {
			continue
		}
		if owner != "" && p.OwnerID != owner {
			continue
		}
		out = append(out, p)
	}
	b.mu.Unlock()

	c.JSON(http.StatusOK, paginate(c, out))
}

// GET /api/pets/:id
func (b *Backend) getPet(c *gin.Context) {
	p, ok := b.Pet(c.Param("id"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "pet not found"})
		return
	}
	c.JSON(http.StatusOK, p)
}

// POST /api/pets
func (b *Backend) createPet(c *gin.Context) {
	var req api.NewPet
	if err := c.ShouldBindJSON(&req); err != nil || req.Name == "" || req.Species == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "name and species are required"})
		return
	}
	p := b.AddPet(api.Pet{
		Name:        req.Name,
		Species:     req.Species,
		Breed:       req.Breed,
		AgeMonths:   req.AgeMonths,
		Description: req.Description,
		Location:    req.Location,
		Photos:      req.Photos,
		OwnerID:     userID(c),
	})
	c.JSON(http.StatusCreated, p)
}

// PUT /api/pets/:id/love
func (b *Backend) togglePetLove(c *gin.Context) {
	uid := userID(c)
	b.mu.Lock()
	p, ok := b.pets[c.Param("id")]
	var loves []string
	if ok {
		p.Loves = toggleMember(p.Loves, uid)
		loves = slices.Clone(p.Loves)
	}
	b.mu.Unlock()

	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "pet not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"loves": loves})
}

// GET /api/posts?page=&limit=
func (b *Backend) listPosts(c *gin.Context) {
	b.mu.Lock()
	out := sortedPosts(b.posts)
	for i := range out {
		out[i].CommentCount = len(b.comments[out[i].ID])
	}
	b.mu.Unlock()
	c.JSON(http.StatusOK, paginate(c, out))
}

// GET /api/posts/:id
func (b *Backend) getPost(c *gin.Context) {
	p, ok := b.Post(c.Param("id"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "post not found"})
		return
	}
	c.JSON(http.StatusOK, p)
}

// POST /api/posts
func (b *Backend) createPost(c *gin.Context) {
	var req api.NewPost
	if err := c.ShouldBindJSON(&req); err != nil || req.ImageURL == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "image_url is required"})
		return
	}
	if len(req.Caption) > 1000 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "caption too long"})
		return
	}

	uid := userID(c)
	b.mu.Lock()
	name := b.users[uid].Name
	b.mu.Unlock()

	p := b.AddPost(api.Post{
		AuthorID:   uid,
		AuthorName: name,
		Caption:    req.Caption,
		ImageURL:   req.ImageURL,
	})
	c.JSON(http.StatusCreated, p)
}

// PUT /api/posts/:id/like; answers with the whole updated post
func (b *Backend) togglePostLike(c *gin.Context) {
	uid := userID(c)
	b.mu.Lock()
	p, ok := b.posts[c.Param("id")]
	var out api.Post
	if ok {
		p.Likes = toggleMember(p.Likes, uid)
		out = *p
		out.Likes = slices.Clone(p.Likes)
	}
	b.mu.Unlock()

	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "post not found"})
		return
	}
	c.JSON(http.StatusOK, out)
}

// GET /api/posts/:id/comments
func (b *Backend) listComments(c *gin.Context) {
	postID := c.Param("id")
	b.mu.Lock()
	_, ok := b.posts[postID]
	out := append([]api.Comment{}, b.comments[postID]...)
	b.mu.Unlock()

	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "post not found"})
		return
	}
	c.JSON(http.StatusOK, out)
}

type commentBody struct {
	Body string `json:"body" binding:"required,max=500"`
}

// POST /api/posts/:id/comments
func (b *Backend) addComment(c *gin.Context) {
	var req commentBody
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid body"})
		return
	}

	postID := c.Param("id")
	uid := userID(c)

	b.mu.Lock()
	if _, ok := b.posts[postID]; !ok {
		b.mu.Unlock()
		c.JSON(http.StatusNotFound, gin.H{"error": "post not found"})
		return
	}
	cm := api.Comment{
		ID:         b.nextID("comment"),
		PostID:     postID,
		AuthorID:   uid,
		AuthorName: b.users[uid].Name,
		Body:       req.Body,
		CreatedAt:  b.now(),
	}
	b.comments[postID] = append(b.comments[postID], cm)
	b.mu.Unlock()

	c.JSON(http.StatusCreated, cm)
}

// DELETE /api/comments/:id
func (b *Backend) deleteComment(c *gin.Context) {
	id := c.Param("id")
	uid := userID(c)

	b.mu.Lock()
	defer b.mu.Unlock()
	for postID, list := range b.comments {
		for i, cm := range list {
			if cm.ID != id {
				continue
			}
			if cm.AuthorID != uid {
				c.JSON(http.StatusForbidden, gin.H{"error": "not your comment"})
				return
			}
			b.comments[postID] = slices.Delete(list, i, i+1)
			c.Status(http.StatusNoContent)
			return
		}
	}
	c.JSON(http.StatusNotFound, gin.H{"error": "comment not found"})
}

type uploadBody struct {
	Filename    string `json:"filename" binding:"required"`
	ContentType string `json:"content_type" binding:"required"`
}

// POST /api/files/upload-url
func (b *Backend) uploadURL(c *gin.Context) {
	var req uploadBody
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid body"})
		return
	}
	key := userID(c) + "/" + newKey() + "-" + req.Filename
	c.JSON(http.StatusOK, api.UploadURL{
		UploadURL: "http://" + c.Request.Host + "/upload/" + key,
		FileKey:   key,
		ExpiresAt: b.now().Add(15 * time.Minute).Unix(),
	})
}

// PUT /upload/*key
func (b *Backend) receiveUpload(c *gin.Context) {
	data, err := c.GetRawData()
	if err != nil {
		c.Status(http.StatusBadRequest)
		return
	}
	b.mu.Lock()
	b.uploads[strings.TrimPrefix(c.Param("key"), "/")] = data
	b.mu.Unlock()
	c.Status(http.StatusOK)
}

// POST /api/chat/token
func (b *Backend) chatToken(c *gin.Context) {
	uid := userID(c)
	b.mu.Lock()
	ttl := b.tokenTTL
	b.mu.Unlock()
	c.JSON(http.StatusOK, api.ChatToken{Token: "chat-" + b.sign(uid, ttl), UserID: uid})
}

func toggleMember(members []string, id string) []string {
	if i := slices.Index(members, id); i >= 0 {
		return slices.Delete(members, i, i+1)
	}
	return append(members, id)
}

// paginate applies ?page= and ?limit= (1-based); no limit means everything
func paginate[T any](c *gin.Context, items []T) []T {
	limit, _ := strconv.Atoi(c.Query("limit"))
	page, _ := strconv.Atoi(c.Query("page"))
	if limit <= 0 {
		return items
	}
	if page <= 0 {
		page = 1
	}
	start := (page - 1) * limit
	if start >= len(items) {
		return []T{}
	}
	end := min(start+limit, len(items))
	return items[start:end]
}
