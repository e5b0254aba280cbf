package server

import (
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/javiermolinar/weekplan/internal/api"
	"github.com/javiermolinar/weekplan/internal/storage"
	"github.com/javiermolinar/weekplan/internal/task"
)

func (srv *Server) listTasks(c *gin.Context) {
	u, _ := currentUser(c)
	tasks, err := srv.tasks.List(c.Request.Context(), u.ID)
	if err != nil {
		srv.writeError(c, err)
		return
	}
	ok(c, api.TaskList{Tasks: storage.NewRecords(u.ID, tasks)})
}

func (srv *Server) createTask(c *gin.Context) {
	u, _ := currentUser(c)
	var r storage.Record
	if err := c.ShouldBindJSON(&r); err != nil {
		badRequest(c, "invalid request body")
		return
	}
	t, err := srv.recordTask(r)
	if err != nil {
		srv.writeError(c, err)
		return
	}
	stored, err := srv.tasks.Insert(c.Request.Context(), u.ID, t)
	if err != nil {
		srv.writeError(c, err)
		return
	}
	ok(c, storage.NewRecord(u.ID, stored))
}

func (srv *Server) bulkCreateTasks(c *gin.Context) {
	u, _ := currentUser(c)
	var req api.BulkRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}

	records := make([]storage.Record, 0, len(req.Tasks))
	for _, r := range req.Tasks {
		t, err := srv.recordTask(r)
		if err != nil {
			srv.writeError(c, err)
			return
		}
		records = append(records, storage.NewRecord(u.ID, t))
	}

	stored, err := srv.tasks.BulkInsert(c.Request.Context(), records)
	if err != nil {
		srv.writeError(c, err)
		return
	}
	ok(c, api.TaskList{Tasks: storage.NewRecords(u.ID, stored)})
}

func (srv *Server) updateTask(c *gin.Context) {
	u, _ := currentUser(c)
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		badRequest(c, "invalid task id")
		return
	}
	var pr storage.PatchRecord
	if err := c.ShouldBindJSON(&pr); err != nil {
		badRequest(c, "invalid request body")
		return
	}
	p, err := pr.Patch()
	if err != nil {
		srv.writeError(c, &task.InvalidPlacementError{Reason: err.Error()})
		return
	}
	if err := srv.validatePatch(p); err != nil {
		srv.writeError(c, err)
		return
	}

	t, err := srv.tasks.Update(c.Request.Context(), id, u.ID, p)
	if err != nil {
		srv.writeError(c, err)
		return
	}
	ok(c, storage.NewRecord(u.ID, t))
}

func (srv *Server) deleteTask(c *gin.Context) {
	u, _ := currentUser(c)
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		badRequest(c, "invalid task id")
		return
	}
	if err := srv.tasks.Delete(c.Request.Context(), id, u.ID); err != nil {
		srv.writeError(c, err)
		return
	}
	ok(c, nil)
}

// recordTask checks an incoming record and returns its task with trimmed fields.
// Ids are ignored; the backend assigns them.
func (srv *Server) recordTask(r storage.Record) (*task.Task, error) {
	note := ""
	if r.Note != nil {
		note = *r.Note
	}
	if errs := task.ValidateFields(r.Title, note); len(errs) > 0 {
		return nil, errs[0]
	}
	t, err := r.Task()
	if err != nil {
		return nil, &task.InvalidPlacementError{Reason: err.Error()}
	}
	if err := srv.grid.Validate(t.Location); err != nil {
		return nil, err
	}
	t.ID = 0
	t.Title = strings.TrimSpace(t.Title)
	t.Note = strings.TrimSpace(t.Note)
	return t, nil
}

// validatePatch checks only the fields the patch sets.
func (srv *Server) validatePatch(p task.Patch) error {
	if p.Title != nil {
		if err := task.ValidateTitle(*p.Title); err != nil {
			return err
		}
	}
	if p.Note != nil {
		if err := task.ValidateNote(*p.Note); err != nil {
			return err
		}
	}
	if p.Location != nil {
		return srv.grid.Validate(p.Location)
	}
	return nil
}
