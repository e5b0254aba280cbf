package server

import (
	"github.com/gin-gonic/gin"

	"github.com/javiermolinar/weekplan/internal/api"
)

func (srv *Server) mapHandlers() {
	srv.registerMiddlewares()
	srv.registerSystemRoutes()
	srv.registerAuthRoutes()
	srv.registerTaskRoutes()
}

func (srv *Server) registerMiddlewares() {
	srv.gin.Use(gin.Recovery())
	srv.gin.Use(srv.requestLogger())
	srv.gin.Use(srv.rateLimit())
}

func (srv *Server) registerSystemRoutes() {
	srv.gin.GET(api.PathHealth, srv.healthCheck)
}

func (srv *Server) registerAuthRoutes() {
	srv.gin.POST(api.PathSignUp, srv.signUp)
	srv.gin.POST(api.PathSignIn, srv.signIn)

	authed := srv.gin.Group("", srv.requireUser())
	authed.POST(api.PathSignOut, srv.signOut)
	authed.GET(api.PathSession, srv.session)
}

func (srv *Server) registerTaskRoutes() {
	tasks := srv.gin.Group("", srv.requireUser())
	tasks.GET(api.PathTasks, srv.listTasks)
	tasks.POST(api.PathTasks, srv.createTask)
	tasks.POST(api.PathTasksBulk, srv.bulkCreateTasks)
	tasks.PATCH(api.PathTaskPattern, srv.updateTask)
	tasks.DELETE(api.PathTaskPattern, srv.deleteTask)
}

func (srv *Server) healthCheck(c *gin.Context) {
	ok(c, gin.H{
		"status":  "healthy",
		"service": "weekplan",
		"version": Version,
	})
}
