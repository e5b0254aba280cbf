package server

import (
	"github.com/gin-gonic/gin"

	"github.com/javiermolinar/weekplan/internal/api"
)

func (srv *Server) signUp(c *gin.Context) {
	var req api.Credentials
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}
	u, token, err := srv.auth.SignUp(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		srv.writeError(c, err)
		return
	}
	ok(c, api.AuthResult{Token: token, User: u})
}

func (srv *Server) signIn(c *gin.Context) {
	var req api.Credentials
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}
	u, token, err := srv.auth.SignIn(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		srv.writeError(c, err)
		return
	}
	ok(c, api.AuthResult{Token: token, User: u})
}

func (srv *Server) signOut(c *gin.Context) {
	if err := srv.auth.SignOut(c.Request.Context(), c.GetString(tokenKey)); err != nil {
		srv.writeError(c, err)
		return
	}
	ok(c, nil)
}

func (srv *Server) session(c *gin.Context) {
	u, _ := currentUser(c)
	ok(c, u)
}
