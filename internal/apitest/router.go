package apitest

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Router builds the gin engine serving the fake API
func (b *Backend) Router() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(requestIDMiddleware())
	r.Use(b.faultMiddleware())

	r.GET("/health", b.health)
	r.PUT("/upload/*key", b.receiveUpload)

	auth := r.Group("/api/auth")
	{
		auth.POST("/signin", b.signIn)
		auth.POST("/signup", b.signUp)
	}

	public := r.Group("/api")
	{
		public.GET("/pets", b.listPets)
		public.GET("/pets/:id", b.getPet)
		public.GET("/posts", b.listPosts)
		public.GET("/posts/:id", b.getPost)
		public.GET("/posts/:id/comments", b.listComments)
		public.GET("/users/:id", b.getUser)
	}

	api := r.Group("/api")
	api.Use(b.bearerAuthMiddleware())
	{
		api.GET("/users/me", b.me)
		api.GET("/users/me/favorites", b.favorites)

		api.POST("/pets", b.createPet)
		api.PUT("/pets/:id/love", b.togglePetLove)

		api.POST("/posts", b.createPost)
		api.PUT("/posts/:id/like", b.togglePostLike)
		api.POST("/posts/:id/comments", b.addComment)
		api.DELETE("/comments/:id", b.deleteComment)

		api.POST("/files/upload-url", b.uploadURL)
		api.POST("/chat/token", b.chatToken)
	}

	return r
}

func (b *Backend) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": "apitest",
	})
}
