package controller

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"sqldeck/internal/middleware"
	"sqldeck/internal/service"
	"sqldeck/internal/utils"
	"sqldeck/pkg/response"
)

type SchemaController struct {
	schemaService service.SchemaService
	validator     *validator.Validate
}

func NewSchemaController(schemaService service.SchemaService) *SchemaController {
	return &SchemaController{
		schemaService: schemaService,
		validator:     validator.New(),
	}
}

func (sc *SchemaController) bind(c *gin.Context, req interface{}) bool {
	correlationID := middleware.GetCorrelationID(c)
	if err := c.ShouldBindJSON(req); err != nil {
		c.JSON(http.StatusBadRequest, response.ErrorResponse(
			utils.ErrCodeInvalidRequest, "Invalid request body: "+err.Error(), "", correlationID))
		return false
	}
	if err := sc.validator.Struct(req); err != nil {
		c.JSON(http.StatusUnprocessableEntity, response.ValidationErrorResponse(err.Error(), correlationID))
		return false
	}
	return true
}

func (sc *SchemaController) respondError(c *gin.Context, err error) {
	correlationID := middleware.GetCorrelationID(c)
	if appErr, ok := err.(*utils.AppError); ok {
		c.JSON(appErr.Status(), response.ErrorResponseFromAppError(appErr, correlationID))
		return
	}
	c.JSON(http.StatusInternalServerError, response.ErrorResponse(
		utils.ErrCodeInternalError, err.Error(), "", correlationID))
}

// GetSchemas returns the introspected schema graph, cached per connection
// unless ?refresh=true forces a reload
func (sc *SchemaController) GetSchemas(c *gin.Context) {
	var req ConnectionRequest
	if !sc.bind(c, &req) {
		return
	}
	forceRefresh := c.Query("refresh") == "true"

	schemas, err := sc.schemaService.GetSchemas(c.Request.Context(), &req.Connection, forceRefresh)
	if err != nil {
		sc.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.SuccessResponse(schemas, middleware.GetCorrelationID(c)))
}

// TableDDLRequest targets one table of a connection
type TableDDLRequest struct {
	ConnectionRequest
	Schema string `json:"schema"`
	Table  string `json:"table" validate:"required"`
}

// GetTableDDL reverse-engineers one table into a structured definition
func (sc *SchemaController) GetTableDDL(c *gin.Context) {
	var req TableDDLRequest
	if !sc.bind(c, &req) {
		return
	}
	def, err := sc.schemaService.GetTableDDL(c.Request.Context(), &req.Connection, req.Schema, req.Table)
	if err != nil {
		sc.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.SuccessResponse(def, middleware.GetCorrelationID(c)))
}

// GetSequences lists sequences visible to the connection
func (sc *SchemaController) GetSequences(c *gin.Context) {
	var req ConnectionRequest
	if !sc.bind(c, &req) {
		return
	}
	sequences, err := sc.schemaService.GetSequences(c.Request.Context(), &req.Connection)
	if err != nil {
		sc.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.SuccessResponse(sequences, middleware.GetCorrelationID(c)))
}

// GetTypes lists user-defined enum and domain types
func (sc *SchemaController) GetTypes(c *gin.Context) {
	var req ConnectionRequest
	if !sc.bind(c, &req) {
		return
	}
	types, err := sc.schemaService.GetTypes(c.Request.Context(), &req.Connection)
	if err != nil {
		sc.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.SuccessResponse(types, middleware.GetCorrelationID(c)))
}

// InvalidateCache drops the cached schema for a connection
func (sc *SchemaController) InvalidateCache(c *gin.Context) {
	var req ConnectionRequest
	if !sc.bind(c, &req) {
		return
	}
	sc.schemaService.InvalidateCache(&req.Connection)
	c.JSON(http.StatusOK, response.SuccessMessageResponse("schema cache invalidated", middleware.GetCorrelationID(c)))
}
