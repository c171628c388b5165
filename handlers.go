package main

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"bitbucket.org/mmdatafocus/transfer_console/catalog"
	"bitbucket.org/mmdatafocus/transfer_console/importer"
	"bitbucket.org/mmdatafocus/transfer_console/models"
	"bitbucket.org/mmdatafocus/transfer_console/orders"
	"bitbucket.org/mmdatafocus/transfer_console/session"
	"bitbucket.org/mmdatafocus/transfer_console/utils"
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

type api struct {
	store     *session.Store
	catalog   *catalog.Client
	submitter *orders.Submitter
}

// sessionView is the response shape of every workspace endpoint: the full
// workspace plus the recomputed totals, so the console never has to derive
// amounts itself.
type sessionView struct {
	SessionId           string                     `json:"session_id"`
	Workspace           models.AllocationWorkspace `json:"workspace"`
	ActiveDestinationId string                     `json:"active_destination_id"`
	PendingBatch        *models.ImportBatch        `json:"pending_batch,omitempty"`
	Totals              models.WorkspaceTotals     `json:"totals"`
	DestinationTotals   []destinationTotalsView    `json:"destination_totals"`
}

type destinationTotalsView struct {
	DestinationId string                   `json:"destination_id"`
	Totals        models.DestinationTotals `json:"totals"`
}

func viewOf(sess session.Session) sessionView {
	view := sessionView{
		SessionId:           sess.ID,
		Workspace:           sess.Workspace,
		ActiveDestinationId: sess.ActiveDestinationId,
		PendingBatch:        sess.PendingBatch,
		Totals:              sess.Workspace.Aggregate(),
	}
	for _, d := range sess.Workspace.Destinations {
		view.DestinationTotals = append(view.DestinationTotals, destinationTotalsView{
			DestinationId: d.ID,
			Totals:        d.Aggregate(),
		})
	}
	return view
}

// ensureEditing refuses mutations once a submission is in flight or done.
func ensureEditing(sess *session.Session) error {
	switch sess.Workspace.Status {
	case models.WorkspaceStatusSubmitting:
		return models.ErrSubmitInFlight
	case models.WorkspaceStatusCommitted:
		return models.ErrWorkspaceCommitted
	}
	return nil
}

func respondUpdateError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, utils.ErrorSessionNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, models.ErrDestinationMissing):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, models.ErrLastDestination):
		c.JSON(http.StatusConflict, gin.H{"warning": err.Error()})
	case errors.Is(err, models.ErrTargetIsSource):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"warning": err.Error()})
	case errors.Is(err, models.ErrSubmitInFlight), errors.Is(err, models.ErrWorkspaceCommitted):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	}
}

type newWorkspaceInput struct {
	SourceLocationId int       `json:"source_location_id" binding:"required"`
	TransferDate     time.Time `json:"transfer_date" binding:"required"`
	PaymentMode      string    `json:"payment_mode" binding:"required"`
	Note             string    `json:"note"`
}

func (a *api) createWorkspaceHandler(c *gin.Context) {
	var input newWorkspaceInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"errors": utils.ProcessValidationErrors(err)})
		return
	}
	mode, ok := models.ParsePaymentMode(input.PaymentMode)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown payment mode: " + input.PaymentMode})
		return
	}

	w := models.NewWorkspace(input.SourceLocationId, input.TransferDate, mode, input.Note)
	sess := a.store.Create(w)
	c.JSON(http.StatusCreated, viewOf(sess))
}

func (a *api) getWorkspaceHandler(c *gin.Context) {
	sess, err := a.store.Get(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, viewOf(sess))
}

func (a *api) workspaceTotalsHandler(c *gin.Context) {
	sess, err := a.store.Get(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}
	view := viewOf(sess)
	c.JSON(http.StatusOK, gin.H{"totals": view.Totals, "destination_totals": view.DestinationTotals})
}

func (a *api) discardWorkspaceHandler(c *gin.Context) {
	a.store.Delete(c.Param("id"))
	c.Status(http.StatusNoContent)
}

type addDestinationInput struct {
	CloneFirst bool `json:"clone_first"`
}

func (a *api) addDestinationHandler(c *gin.Context) {
	var input addDestinationInput
	_ = c.ShouldBindJSON(&input)

	sess, err := a.store.Update(c.Param("id"), func(sess *session.Session) error {
		if err := ensureEditing(sess); err != nil {
			return err
		}
		var template *models.Destination
		if input.CloneFirst && len(sess.Workspace.Destinations) > 0 {
			first := sess.Workspace.Destinations[0]
			template = &first
		}
		w, addedId := sess.Workspace.AddDestination(template)
		sess.Workspace = w
		sess.ActiveDestinationId = addedId
		return nil
	})
	if err != nil {
		respondUpdateError(c, err)
		return
	}
	c.JSON(http.StatusOK, viewOf(sess))
}

func (a *api) removeDestinationHandler(c *gin.Context) {
	destinationId := c.Param("destinationId")
	sess, err := a.store.Update(c.Param("id"), func(sess *session.Session) error {
		if err := ensureEditing(sess); err != nil {
			return err
		}
		w, err := sess.Workspace.RemoveDestination(destinationId)
		if err != nil {
			return err
		}
		sess.Workspace = w
		if sess.ActiveDestinationId == destinationId {
			sess.ActiveDestinationId = w.Destinations[0].ID
		}
		return nil
	})
	if err != nil {
		respondUpdateError(c, err)
		return
	}
	c.JSON(http.StatusOK, viewOf(sess))
}

type setTargetInput struct {
	TargetLocationId *int `json:"target_location_id"`
}

func (a *api) setDestinationTargetHandler(c *gin.Context) {
	var input setTargetInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"errors": utils.ProcessValidationErrors(err)})
		return
	}
	sess, err := a.store.Update(c.Param("id"), func(sess *session.Session) error {
		if err := ensureEditing(sess); err != nil {
			return err
		}
		w, err := sess.Workspace.SetDestinationTarget(c.Param("destinationId"), input.TargetLocationId)
		if err != nil {
			return err
		}
		sess.Workspace = w
		return nil
	})
	if err != nil {
		respondUpdateError(c, err)
		return
	}
	c.JSON(http.StatusOK, viewOf(sess))
}

func (a *api) addLineHandler(c *gin.Context) {
	destinationId := c.Param("destinationId")
	sess, err := a.store.Update(c.Param("id"), func(sess *session.Session) error {
		if err := ensureEditing(sess); err != nil {
			return err
		}
		w, err := sess.Workspace.AddLine(destinationId)
		if err != nil {
			return err
		}
		sess.Workspace = w
		sess.ActiveDestinationId = destinationId
		return nil
	})
	if err != nil {
		respondUpdateError(c, err)
		return
	}
	c.JSON(http.StatusOK, viewOf(sess))
}

type updateLineInput struct {
	Field string `json:"field" binding:"required"`
	Value string `json:"value"`
}

func (a *api) updateLineHandler(c *gin.Context) {
	index, err := strconv.Atoi(c.Param("index"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid line index"})
		return
	}
	var input updateLineInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"errors": utils.ProcessValidationErrors(err)})
		return
	}
	field, ok := models.ParseLineItemField(input.Field)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown line field: " + input.Field})
		return
	}

	sess, err := a.store.Update(c.Param("id"), func(sess *session.Session) error {
		if err := ensureEditing(sess); err != nil {
			return err
		}
		w, err := sess.Workspace.UpdateLine(c.Param("destinationId"), index, field, input.Value)
		if err != nil {
			return err
		}
		sess.Workspace = w
		return nil
	})
	if err != nil {
		respondUpdateError(c, err)
		return
	}
	c.JSON(http.StatusOK, viewOf(sess))
}

func (a *api) removeLineHandler(c *gin.Context) {
	index, err := strconv.Atoi(c.Param("index"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid line index"})
		return
	}
	sess, err := a.store.Update(c.Param("id"), func(sess *session.Session) error {
		if err := ensureEditing(sess); err != nil {
			return err
		}
		w, err := sess.Workspace.RemoveLine(c.Param("destinationId"), index)
		if err != nil {
			return err
		}
		sess.Workspace = w
		return nil
	})
	if err != nil {
		respondUpdateError(c, err)
		return
	}
	c.JSON(http.StatusOK, viewOf(sess))
}

func (a *api) searchCatalogHandler(c *gin.Context) {
	if a.catalog == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "catalog search is not configured"})
		return
	}
	products, err := a.catalog.Search(c.Request.Context(), c.Query("keyword"))
	if err != nil {
		// Recoverable: the editing session is untouched by a failed search.
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}
	if products == nil {
		products = []catalog.CatalogProduct{}
	}
	c.JSON(http.StatusOK, gin.H{"data": products})
}

type selectProductInput struct {
	Id        int             `json:"id" binding:"required"`
	Sku       string          `json:"sku"`
	Name      string          `json:"name" binding:"required"`
	CostPrice decimal.Decimal `json:"cost_price"`
}

func (a *api) selectProductHandler(c *gin.Context) {
	var input selectProductInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"errors": utils.ProcessValidationErrors(err)})
		return
	}
	destinationId := c.Param("destinationId")

	sess, err := a.store.Update(c.Param("id"), func(sess *session.Session) error {
		if err := ensureEditing(sess); err != nil {
			return err
		}
		w, err := catalog.SelectProduct(sess.Workspace, destinationId, catalog.CatalogProduct{
			ID:        input.Id,
			Sku:       input.Sku,
			Name:      input.Name,
			CostPrice: input.CostPrice,
		})
		if err != nil {
			return err
		}
		sess.Workspace = w
		sess.ActiveDestinationId = destinationId
		return nil
	})
	if err != nil {
		respondUpdateError(c, err)
		return
	}
	c.JSON(http.StatusOK, viewOf(sess))
}

func (a *api) stageImportHandler(c *gin.Context) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing upload file"})
		return
	}
	file, err := fileHeader.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	defer file.Close()

	batch, err := importer.ParseWorkbook(file, fileHeader.Filename)
	if err != nil {
		// Structural parse failure: nothing is staged.
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
		return
	}

	sess, err := a.store.Update(c.Param("id"), func(sess *session.Session) error {
		if err := ensureEditing(sess); err != nil {
			return err
		}
		sess.PendingBatch = batch
		return nil
	})
	if err != nil {
		respondUpdateError(c, err)
		return
	}
	c.JSON(http.StatusOK, viewOf(sess))
}

type confirmImportInput struct {
	DestinationId string `json:"destination_id"`
}

func (a *api) confirmImportHandler(c *gin.Context) {
	var input confirmImportInput
	_ = c.ShouldBindJSON(&input)

	sess, err := a.store.Update(c.Param("id"), func(sess *session.Session) error {
		if err := ensureEditing(sess); err != nil {
			return err
		}
		if sess.PendingBatch == nil {
			return errors.New("no import batch is staged")
		}
		destinationId := input.DestinationId
		if destinationId == "" {
			destinationId = sess.ActiveDestinationId
		}
		w, err := sess.Workspace.MergeImportBatch(destinationId, sess.PendingBatch)
		if err != nil {
			return err
		}
		sess.Workspace = w
		sess.PendingBatch = nil
		sess.ActiveDestinationId = destinationId
		return nil
	})
	if err != nil {
		respondUpdateError(c, err)
		return
	}
	c.JSON(http.StatusOK, viewOf(sess))
}

func (a *api) cancelImportHandler(c *gin.Context) {
	// Cancel drops the staged batch; the destination it was aimed at is
	// untouched.
	sess, err := a.store.Update(c.Param("id"), func(sess *session.Session) error {
		sess.PendingBatch = nil
		return nil
	})
	if err != nil {
		respondUpdateError(c, err)
		return
	}
	c.JSON(http.StatusOK, viewOf(sess))
}

func (a *api) submitHandler(c *gin.Context) {
	if a.submitter == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "order submission is not configured"})
		return
	}
	sessionId := c.Param("id")
	sess, err := a.store.Get(sessionId)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}

	// Report the discriminated validation failure before touching the
	// submit machinery so the console can highlight the offending row.
	if failure := sess.Workspace.ValidateForSubmission(); failure != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"validation_failure": failure})
		return
	}

	// Stash the session id so the submission log trail can be tied back to
	// this editing session.
	ctx := utils.SetSessionIdInContext(c.Request.Context(), sessionId)
	result, err := a.submitter.Submit(ctx, a.store, sessionId)
	if err != nil {
		switch {
		case errors.Is(err, models.ErrSubmitInFlight), errors.Is(err, models.ErrWorkspaceCommitted):
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		default:
			// Workspace preserved unmodified for retry.
			c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		}
		return
	}
	c.JSON(http.StatusOK, gin.H{"result": result})
}
