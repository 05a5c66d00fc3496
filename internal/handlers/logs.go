package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/a2a-routing/console/internal/backend"
	"github.com/a2a-routing/console/internal/console"
	"github.com/a2a-routing/console/internal/logs"
	"github.com/a2a-routing/console/internal/middleware"
	"github.com/a2a-routing/console/internal/models"
)

// LogHandler serves one log pipeline of the console page: fetching,
// filtering, detail rows and exports. The same handler type serves every
// log kind.
type LogHandler[R any, F logs.Filter] struct {
	client *backend.Client
	store  *console.Store
	view   func(*console.Page) *logs.View[R, F]
	// load replaces the user-scoped fetch; used by pages that list the
	// operator's own logs.
	load func(ctx context.Context, creds backend.Credentials) ([]R, error)
}

// NewConversationLogHandler serves the admin conversation logs
func NewConversationLogHandler(client *backend.Client, store *console.Store) *LogHandler[models.ConversationLog, logs.ConversationFilter] {
	return &LogHandler[models.ConversationLog, logs.ConversationFilter]{
		client: client,
		store:  store,
		view: func(p *console.Page) *logs.View[models.ConversationLog, logs.ConversationFilter] {
			return p.Conversations
		},
	}
}

// NewPlatformLogHandler serves the admin platform logs
func NewPlatformLogHandler(client *backend.Client, store *console.Store) *LogHandler[models.PlatformLog, logs.PlatformFilter] {
	return &LogHandler[models.PlatformLog, logs.PlatformFilter]{
		client: client,
		store:  store,
		view: func(p *console.Page) *logs.View[models.PlatformLog, logs.PlatformFilter] {
			return p.Platform
		},
	}
}

// NewOwnLogHandler serves the operator's own conversation logs
func NewOwnLogHandler(client *backend.Client, store *console.Store) *LogHandler[models.ConversationLog, logs.ConversationFilter] {
	return &LogHandler[models.ConversationLog, logs.ConversationFilter]{
		client: client,
		store:  store,
		view: func(p *console.Page) *logs.View[models.ConversationLog, logs.ConversationFilter] {
			return p.OwnLogs
		},
		load: client.ListOwnLogs,
	}
}

type fetchLogsRequest struct {
	UserEmails []string `json:"user_emails"`
}

// Fetch loads logs for the selected users, or for the users named in the
// body when it lists any.
// POST /console/logs/:kind/fetch
func (h *LogHandler[R, F]) Fetch(c *gin.Context) {
	page := pageFor(c, h.store)
	view := h.view(page)
	creds := middleware.Credentials(c)

	var (
		n     int
		users int
		err   error
	)
	if h.load != nil {
		users = 1
		n, err = view.Load(c.Request.Context(), users, func(ctx context.Context) ([]R, error) {
			return h.load(ctx, creds)
		})
	} else {
		var req fetchLogsRequest
		if c.Request.ContentLength > 0 {
			if bindErr := c.ShouldBindJSON(&req); bindErr != nil {
				badRequest(c, bindErr)
				return
			}
		}
		selected := req.UserEmails
		if len(selected) == 0 {
			selected = page.SelectedUsers()
		}
		users = len(selected)
		n, err = view.Fetch(c.Request.Context(), h.client, creds, selected)
	}

	switch {
	case errors.Is(err, logs.ErrNoUsersSelected):
		rejectAction(c, page, http.StatusBadRequest, "no_users_selected", "Select at least one user")
		return
	case errors.Is(err, logs.ErrStale):
		c.JSON(http.StatusConflict, models.ErrorResponse{
			Error:   "stale_response",
			Message: "The console session was reset during the request",
		})
		return
	case err != nil:
		failAction(c, page, "fetch_logs_failed", err, "Failed to fetch logs")
		return
	}

	page.Toasts.Success(fetchMessage(n, users, h.load == nil, !view.Filter().Window().IsZero()))
	c.JSON(http.StatusOK, view.Snapshot())
}

func fetchMessage(records, users int, perUser, withPeriod bool) string {
	msg := fmt.Sprintf("Fetched %d logs", records)
	if perUser {
		msg += fmt.Sprintf(" for %d users", users)
	}
	if withPeriod {
		msg += " (with period)"
	}
	return msg
}

// View renders the filtered logs with their open detail rows
// GET /console/logs/:kind
func (h *LogHandler[R, F]) View(c *gin.Context) {
	c.JSON(http.StatusOK, h.view(pageFor(c, h.store)).Snapshot())
}

// SetFilter replaces the filter
// PUT /console/logs/:kind/filter
func (h *LogHandler[R, F]) SetFilter(c *gin.Context) {
	var f F
	if err := c.ShouldBindJSON(&f); err != nil {
		badRequest(c, err)
		return
	}
	page := pageFor(c, h.store)
	view := h.view(page)
	if err := view.SetFilter(f); err != nil {
		rejectAction(c, page, http.StatusBadRequest, "invalid_filter", err.Error())
		return
	}
	c.JSON(http.StatusOK, view.Snapshot())
}

// ClearFilter resets every filter field
// DELETE /console/logs/:kind/filter
func (h *LogHandler[R, F]) ClearFilter(c *gin.Context) {
	view := h.view(pageFor(c, h.store))
	view.ClearFilter()
	c.JSON(http.StatusOK, view.Snapshot())
}

// Toggle opens or closes the detail of one row
// POST /console/logs/:kind/rows/:index/toggle
func (h *LogHandler[R, F]) Toggle(c *gin.Context) {
	index, err := strconv.Atoi(c.Param("index"))
	if err != nil {
		badRequest(c, fmt.Errorf("invalid row index %q", c.Param("index")))
		return
	}
	view := h.view(pageFor(c, h.store))
	if _, err := view.Toggle(index); err != nil {
		c.JSON(http.StatusNotFound, models.ErrorResponse{
			Error:   "no_such_row",
			Message: err.Error(),
		})
		return
	}
	c.JSON(http.StatusOK, view.Snapshot())
}

// ExportJSON downloads the fetched logs, unfiltered
// GET /console/logs/:kind/export.json
func (h *LogHandler[R, F]) ExportJSON(c *gin.Context) {
	page := pageFor(c, h.store)
	h.download(c, page, h.view(page).ExportJSON)
}

// ExportCSV downloads the filtered logs
// GET /console/logs/:kind/export.csv
func (h *LogHandler[R, F]) ExportCSV(c *gin.Context) {
	page := pageFor(c, h.store)
	h.download(c, page, h.view(page).ExportCSV)
}

func (h *LogHandler[R, F]) download(c *gin.Context, page *console.Page, export func() (logs.Export, error)) {
	exp, err := export()
	if errors.Is(err, logs.ErrNothingToExport) {
		rejectAction(c, page, http.StatusNotFound, "nothing_to_export", "There are no logs to export")
		return
	}
	if err != nil {
		rejectAction(c, page, http.StatusInternalServerError, "export_failed", "Failed to export logs")
		return
	}

	page.Toasts.Success("Downloaded " + exp.Filename)
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", exp.Filename))
	c.Data(http.StatusOK, exp.ContentType, exp.Data)
}
