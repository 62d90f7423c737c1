package handler

import (
	"net/http"

	"ischolar/internal/middleware"
	"ischolar/internal/model"
	"ischolar/internal/service"
	"ischolar/pkg/apperr"
	"ischolar/pkg/pagination"
	"ischolar/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type ApplicationHandler struct {
	applicationService service.ApplicationService
	programService     service.ProgramService
}

func NewApplicationHandler(applicationService service.ApplicationService, programService service.ProgramService) *ApplicationHandler {
	return &ApplicationHandler{applicationService: applicationService, programService: programService}
}

func (h *ApplicationHandler) RegisterRoutes(router *gin.RouterGroup) {
	router.GET("/programs", h.ListPrograms)

	applications := router.Group("/applications")
	applications.Use(middleware.RequireRole(model.RoleStudent))
	{
		applications.POST("", h.Submit)
		applications.GET("/mine", h.ListMine)
		applications.POST("/:id/files", h.AttachFile)
	}

	admin := router.Group("/admin/applications")
	{
		admin.GET("",
			middleware.RequireRole(model.RoleAdmin, model.RoleReviewer, model.RoleApprover),
			h.List)
		admin.PUT("/:id/status",
			middleware.RequireRole(model.RoleAdmin, model.RoleReviewer, model.RoleApprover),
			h.TransitionStatus)
	}
}

// ListPrograms handles GET /programs
// @Summary      List open program cycles
// @Description  Returns the program cycles currently accepting applications, with their requirements
// @Tags         programs
// @Produce      json
// @Success      200  {object}  response.Response{data=[]service.ProgramCycleResponse}
// @Router       /programs [get]
func (h *ApplicationHandler) ListPrograms(c *gin.Context) {
	cycles, err := h.programService.ListOpenCycles(c.Request.Context())
	if err != nil {
		code := apperr.HTTPStatus(err)
		c.JSON(code, response.Error(code, apperr.UserMessage(err)))
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, cycles))
}

// Submit handles POST /applications
// @Summary      Submit a scholarship application
// @Description  Creates one application per student and program cycle after GWA eligibility checks
// @Tags         applications
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        payload  body      service.SubmitApplicationRequest  true  "Application payload"
// @Success      201      {object}  response.Response{data=service.ApplicationResponse}
// @Failure      400      {object}  response.Response
// @Failure      409      {object}  response.Response
// @Router       /applications [post]
func (h *ApplicationHandler) Submit(c *gin.Context) {
	var req service.SubmitApplicationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	app, err := h.applicationService.Submit(c.Request.Context(), currentUserID(c), req)
	if err != nil {
		code := apperr.HTTPStatus(err)
		c.JSON(code, response.Error(code, apperr.UserMessage(err)))
		return
	}

	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, app))
}

// ListMine handles GET /applications/mine
// @Summary      List my applications
// @Tags         applications
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  response.Response{data=[]service.ApplicationResponse}
// @Router       /applications/mine [get]
func (h *ApplicationHandler) ListMine(c *gin.Context) {
	apps, err := h.applicationService.ListMine(c.Request.Context(), currentUserID(c))
	if err != nil {
		code := apperr.HTTPStatus(err)
		c.JSON(code, response.Error(code, apperr.UserMessage(err)))
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, apps))
}

// AttachFile handles POST /applications/:id/files (multipart/form-data)
// @Summary      Attach a requirement file to an application
// @Description  Uploads a file against a cycle requirement, enforcing its MIME and size rules
// @Tags         applications
// @Accept       multipart/form-data
// @Produce      json
// @Security     BearerAuth
// @Param        id              path      string  true  "Application ID"
// @Param        requirement_id  formData  string  true  "Requirement ID"
// @Param        file            formData  file    true  "Requirement file"
// @Success      201             {object}  response.Response{data=service.ApplicationFileResponse}
// @Failure      400             {object}  response.Response
// @Router       /applications/{id}/files [post]
func (h *ApplicationHandler) AttachFile(c *gin.Context) {
	applicationID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid application ID"))
		return
	}

	requirementID, err := uuid.Parse(c.PostForm("requirement_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "A valid requirement_id is required"))
		return
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "A requirement file is required"))
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Could not read uploaded file"))
		return
	}
	defer file.Close()

	attached, err := h.applicationService.AttachFile(c.Request.Context(), currentUserID(c), applicationID, service.AttachFileRequest{
		RequirementID: requirementID,
		FileName:      fileHeader.Filename,
		MimeType:      fileHeader.Header.Get("Content-Type"),
		SizeBytes:     fileHeader.Size,
		File:          file,
	})
	if err != nil {
		code := apperr.HTTPStatus(err)
		c.JSON(code, response.Error(code, apperr.UserMessage(err)))
		return
	}

	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, attached))
}

// List handles GET /admin/applications with status filter and paging
// @Summary      List applications for review
// @Tags         applications
// @Produce      json
// @Security     BearerAuth
// @Param        status  query     string  false  "Filter by application status"
// @Param        page    query     int     false  "Page number"     default(1)
// @Param        limit   query     int     false  "Items per page"  default(20)
// @Success      200     {object}  response.Response{data=response.PaginatedData}
// @Router       /admin/applications [get]
func (h *ApplicationHandler) List(c *gin.Context) {
	params := pagination.Parse(c)
	filter := service.ApplicationFilter{
		Status: c.Query("status"),
		Page:   params.Page,
		Limit:  params.Limit,
	}

	apps, total, err := h.applicationService.List(c.Request.Context(), currentUserID(c), filter)
	if err != nil {
		code := apperr.HTTPStatus(err)
		c.JSON(code, response.Error(code, apperr.UserMessage(err)))
		return
	}

	c.JSON(http.StatusOK, response.SuccessWithPagination(http.StatusOK, apps, params.Page, params.Limit, total))
}

// TransitionStatus handles PUT /admin/applications/:id/status
// @Summary      Change an application's status
// @Description  Advances an application through IN_VERIFICATION, FOR_CLARIFICATION, APPROVED, or DENIED
// @Tags         applications
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id       path      string                           true  "Application ID"
// @Param        payload  body      service.TransitionStatusRequest  true  "Target status"
// @Success      200      {object}  response.Response{data=service.ApplicationResponse}
// @Failure      403      {object}  response.Response
// @Failure      409      {object}  response.Response
// @Router       /admin/applications/{id}/status [put]
func (h *ApplicationHandler) TransitionStatus(c *gin.Context) {
	applicationID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid application ID"))
		return
	}

	var req service.TransitionStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	app, err := h.applicationService.TransitionStatus(c.Request.Context(), currentUserID(c), applicationID, req.Status)
	if err != nil {
		code := apperr.HTTPStatus(err)
		c.JSON(code, response.Error(code, apperr.UserMessage(err)))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, app))
}
