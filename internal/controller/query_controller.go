package controller

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"sqldeck/internal/middleware"
	"sqldeck/internal/model"
	"sqldeck/internal/service"
	"sqldeck/internal/utils"
	"sqldeck/pkg/response"
)

// ConnectionRequest carries just a connection target
type ConnectionRequest struct {
	Connection model.ConnectionConfig `json:"connection" validate:"required"`
}

// QueryRequest carries a connection target plus the SQL to run
type QueryRequest struct {
	Connection model.ConnectionConfig `json:"connection" validate:"required"`
	SQL        string                 `json:"sql" validate:"required"`
	Options    model.QueryOptions     `json:"options"`
}

// ExplainRequest asks for a plan, optionally executing the statement
type ExplainRequest struct {
	Connection model.ConnectionConfig `json:"connection" validate:"required"`
	SQL        string                 `json:"sql" validate:"required"`
	Analyze    bool                   `json:"analyze"`
}

// EditBatchRequest applies row edits against one table
type EditBatchRequest struct {
	Connection model.ConnectionConfig `json:"connection" validate:"required"`
	Batch      model.EditBatch        `json:"batch" validate:"required"`
}

// CreateTableRequest creates a table from a structured definition
type CreateTableRequest struct {
	Connection model.ConnectionConfig `json:"connection" validate:"required"`
	Definition model.TableDefinition  `json:"definition" validate:"required"`
}

// AlterTableRequest applies a batch of discrete table changes
type AlterTableRequest struct {
	Connection model.ConnectionConfig `json:"connection" validate:"required"`
	Batch      model.AlterTableBatch  `json:"batch" validate:"required"`
}

// DropTableRequest drops a table
type DropTableRequest struct {
	Connection model.ConnectionConfig `json:"connection" validate:"required"`
	Schema     string                 `json:"schema"`
	Table      string                 `json:"table" validate:"required"`
	Cascade    bool                   `json:"cascade"`
}

type QueryController struct {
	queryService service.QueryService
	validator    *validator.Validate
}

func NewQueryController(queryService service.QueryService) *QueryController {
	return &QueryController{
		queryService: queryService,
		validator:    validator.New(),
	}
}

// bind decodes and validates a JSON request body, writing the error
// response itself when the payload is unusable
func (qc *QueryController) bind(c *gin.Context, req interface{}) bool {
	correlationID := middleware.GetCorrelationID(c)
	if err := c.ShouldBindJSON(req); err != nil {
		c.JSON(http.StatusBadRequest, response.ErrorResponse(
			utils.ErrCodeInvalidRequest, "Invalid request body: "+err.Error(), "", correlationID))
		return false
	}
	if err := qc.validator.Struct(req); err != nil {
		c.JSON(http.StatusUnprocessableEntity, response.ValidationErrorResponse(err.Error(), correlationID))
		return false
	}
	return true
}

func (qc *QueryController) respondError(c *gin.Context, err error) {
	correlationID := middleware.GetCorrelationID(c)
	if appErr, ok := err.(*utils.AppError); ok {
		c.JSON(appErr.Status(), response.ErrorResponseFromAppError(appErr, correlationID))
		return
	}
	c.JSON(http.StatusInternalServerError, response.ErrorResponse(
		utils.ErrCodeInternalError, err.Error(), "", correlationID))
}

// TestConnection verifies that the target database is reachable
func (qc *QueryController) TestConnection(c *gin.Context) {
	var req ConnectionRequest
	if !qc.bind(c, &req) {
		return
	}
	if err := qc.queryService.TestConnection(c.Request.Context(), &req.Connection); err != nil {
		qc.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.SuccessMessageResponse("connection ok", middleware.GetCorrelationID(c)))
}

// NewExecutionID mints an execution id the client passes back with the run
// it may want to cancel
func (qc *QueryController) NewExecutionID(c *gin.Context) {
	id := qc.queryService.NewExecutionID()
	c.JSON(http.StatusOK, response.SuccessResponse(gin.H{"executionId": id}, middleware.GetCorrelationID(c)))
}

// ExecuteQuery runs a (possibly multi-statement) SQL script
func (qc *QueryController) ExecuteQuery(c *gin.Context) {
	var req QueryRequest
	if !qc.bind(c, &req) {
		return
	}

	result, err := qc.queryService.ExecuteQuery(c.Request.Context(), &req.Connection, req.SQL, &req.Options)
	qc.recordMetrics(req.Connection.Dialect, result, err)
	if err != nil {
		// partial results still reach the client on failure
		correlationID := middleware.GetCorrelationID(c)
		status := http.StatusInternalServerError
		resp := response.ErrorResponse(utils.ErrCodeQueryFailed, err.Error(), "", correlationID)
		if appErr, ok := err.(*utils.AppError); ok {
			status = appErr.Status()
			resp = response.ErrorResponseFromAppError(appErr, correlationID)
		}
		resp.Data = result
		c.JSON(status, resp)
		return
	}
	c.JSON(http.StatusOK, response.SuccessResponse(result, middleware.GetCorrelationID(c)))
}

func (qc *QueryController) recordMetrics(dialect model.Dialect, result *model.MultiQueryResult, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	var duration time.Duration
	var rows int64
	if result != nil {
		duration = time.Duration(result.TotalDurationMs) * time.Millisecond
		for _, r := range result.Results {
			rows += r.RowCount
		}
	}
	middleware.RecordQueryMetrics(string(dialect), status, duration, rows)
}

// CancelQuery aborts an in-flight execution by id
func (qc *QueryController) CancelQuery(c *gin.Context) {
	id := model.ExecutionID(c.Param("id"))
	found := qc.queryService.CancelQuery(id)
	middleware.RecordQueryCancel()
	c.JSON(http.StatusOK, response.SuccessResponse(gin.H{"cancelled": found}, middleware.GetCorrelationID(c)))
}

// ExplainQuery returns the engine's execution plan
func (qc *QueryController) ExplainQuery(c *gin.Context) {
	var req ExplainRequest
	if !qc.bind(c, &req) {
		return
	}
	result, err := qc.queryService.ExplainQuery(c.Request.Context(), &req.Connection, req.SQL, req.Analyze)
	if err != nil {
		qc.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.SuccessResponse(result, middleware.GetCorrelationID(c)))
}

// PreviewEdits builds display SQL for an edit batch without executing it
func (qc *QueryController) PreviewEdits(c *gin.Context) {
	var req EditBatchRequest
	if !qc.bind(c, &req) {
		return
	}
	statements, invalid := qc.queryService.PreviewEdits(&req.Batch)
	c.JSON(http.StatusOK, response.SuccessResponse(gin.H{
		"statements":       statements,
		"validationErrors": invalid,
	}, middleware.GetCorrelationID(c)))
}

// ApplyEdits applies an edit batch transactionally
func (qc *QueryController) ApplyEdits(c *gin.Context) {
	var req EditBatchRequest
	if !qc.bind(c, &req) {
		return
	}
	result, err := qc.queryService.ApplyEdits(c.Request.Context(), &req.Connection, &req.Batch)
	if err != nil {
		qc.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.SuccessResponse(result, middleware.GetCorrelationID(c)))
}

// CreateTable creates a table from a structured definition
func (qc *QueryController) CreateTable(c *gin.Context) {
	var req CreateTableRequest
	if !qc.bind(c, &req) {
		return
	}
	if err := qc.queryService.CreateTable(c.Request.Context(), &req.Connection, &req.Definition); err != nil {
		qc.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.SuccessMessageResponse("table created", middleware.GetCorrelationID(c)))
}

// AlterTable applies a batch of table alterations
func (qc *QueryController) AlterTable(c *gin.Context) {
	var req AlterTableRequest
	if !qc.bind(c, &req) {
		return
	}
	if err := qc.queryService.AlterTable(c.Request.Context(), &req.Connection, &req.Batch); err != nil {
		qc.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.SuccessMessageResponse("table altered", middleware.GetCorrelationID(c)))
}

// DropTable drops a table
func (qc *QueryController) DropTable(c *gin.Context) {
	var req DropTableRequest
	if !qc.bind(c, &req) {
		return
	}
	if err := qc.queryService.DropTable(c.Request.Context(), &req.Connection, req.Schema, req.Table, req.Cascade); err != nil {
		qc.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.SuccessMessageResponse("table dropped", middleware.GetCorrelationID(c)))
}

// GetQueryStats reports engine-wide execution statistics
func (qc *QueryController) GetQueryStats(c *gin.Context) {
	stats, err := qc.queryService.GetQueryStats(c.Request.Context())
	if err != nil {
		qc.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.SuccessResponse(stats, middleware.GetCorrelationID(c)))
}
