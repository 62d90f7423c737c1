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

type VerificationHandler struct {
	verificationService service.VerificationService
}

func NewVerificationHandler(verificationService service.VerificationService) *VerificationHandler {
	return &VerificationHandler{verificationService: verificationService}
}

func (h *VerificationHandler) RegisterRoutes(router *gin.RouterGroup) {
	verification := router.Group("/verification")
	{
		verification.GET("/status",
			middleware.RequireRole(model.RoleStudent, model.RoleReviewer, model.RoleApprover, model.RoleAdmin),
			h.GetStatus)
		verification.POST("/documents",
			middleware.RequireRole(model.RoleStudent),
			h.UploadDocument)
	}

	admin := router.Group("/admin/verifications")
	admin.Use(middleware.RequireRole(model.RoleAdmin, model.RoleReviewer))
	{
		admin.GET("", h.ListRequests)
		admin.PUT("/documents/:id", h.ReviewDocument)
		admin.PUT("/profiles/:id/status", h.UpdateProfileStatus)
	}
}

// GetStatus handles GET /verification/status
// @Summary      Get verification status
// @Description  Returns the caller's verification state and uploaded documents
// @Tags         verification
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  response.Response{data=service.VerificationStatusResponse}
// @Router       /verification/status [get]
func (h *VerificationHandler) GetStatus(c *gin.Context) {
	userID := currentUserID(c)
	status, err := h.verificationService.GetStatus(c.Request.Context(), userID)
	if err != nil {
		code := apperr.HTTPStatus(err)
		c.JSON(code, response.Error(code, apperr.UserMessage(err)))
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, status))
}

// UploadDocument handles POST /verification/documents (multipart/form-data)
// @Summary      Upload a verification document
// @Description  Accepts a document file plus its doc_type, stores it, and queues it for review
// @Tags         verification
// @Accept       multipart/form-data
// @Produce      json
// @Security     BearerAuth
// @Param        doc_type  formData  string  true  "STUDENT_ID, PROOF_OF_ENROLLMENT, or GOVERNMENT_ID"
// @Param        file      formData  file    true  "Document file"
// @Success      201       {object}  response.Response{data=service.VerificationDocumentResponse}
// @Failure      400       {object}  response.Response
// @Router       /verification/documents [post]
func (h *VerificationHandler) UploadDocument(c *gin.Context) {
	userID := currentUserID(c)

	docType := c.PostForm("doc_type")
	fileHeader, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "A document file is required"))
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Could not read uploaded file"))
		return
	}
	defer file.Close()

	doc, err := h.verificationService.UploadDocument(c.Request.Context(), userID, service.UploadDocumentRequest{
		DocType:   docType,
		FileName:  fileHeader.Filename,
		MimeType:  fileHeader.Header.Get("Content-Type"),
		SizeBytes: fileHeader.Size,
		File:      file,
	})
	if err != nil {
		code := apperr.HTTPStatus(err)
		c.JSON(code, response.Error(code, apperr.UserMessage(err)))
		return
	}

	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, doc))
}

// ListRequests handles GET /admin/verifications
// @Summary      List verification requests
// @Description  Lists profiles awaiting review together with their documents
// @Tags         verification
// @Produce      json
// @Security     BearerAuth
// @Param        page   query     int  false  "Page number"     default(1)
// @Param        limit  query     int  false  "Items per page"  default(10)
// @Success      200    {object}  response.Response{data=[]service.VerificationRequestResponse}
// @Router       /admin/verifications [get]
func (h *VerificationHandler) ListRequests(c *gin.Context) {
	params := pagination.Parse(c)

	requests, total, err := h.verificationService.ListRequests(c.Request.Context(), currentUserID(c), params.Page, params.Limit)
	if err != nil {
		code := apperr.HTTPStatus(err)
		c.JSON(code, response.Error(code, apperr.UserMessage(err)))
		return
	}

	c.JSON(http.StatusOK, response.SuccessWithPagination(http.StatusOK, requests, params.Page, params.Limit, total))
}

// ReviewDocument handles PUT /admin/verifications/documents/:id
// @Summary      Review a verification document
// @Description  Marks a document VALID or INVALID; INVALID requires a rejection reason
// @Tags         verification
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id       path      string                         true  "Document ID"
// @Param        payload  body      service.ReviewDocumentRequest  true  "Review verdict"
// @Success      200      {object}  response.Response{data=service.VerificationDocumentResponse}
// @Failure      400      {object}  response.Response
// @Router       /admin/verifications/documents/{id} [put]
func (h *VerificationHandler) ReviewDocument(c *gin.Context) {
	documentID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid document ID"))
		return
	}

	var req service.ReviewDocumentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	doc, err := h.verificationService.ReviewDocument(c.Request.Context(), currentUserID(c), documentID, req)
	if err != nil {
		code := apperr.HTTPStatus(err)
		c.JSON(code, response.Error(code, apperr.UserMessage(err)))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, doc))
}

// UpdateProfileStatus handles PUT /admin/verifications/profiles/:id/status
// @Summary      Update a profile's verification status
// @Description  Moves a profile under review to VERIFIED, REJECTED, or SUSPENDED
// @Tags         verification
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id       path      string                                    true  "Profile ID"
// @Param        payload  body      service.UpdateVerificationStatusRequest  true  "Target status"
// @Success      200      {object}  response.Response
// @Failure      409      {object}  response.Response
// @Router       /admin/verifications/profiles/{id}/status [put]
func (h *VerificationHandler) UpdateProfileStatus(c *gin.Context) {
	profileID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid profile ID"))
		return
	}

	var req service.UpdateVerificationStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	if err := h.verificationService.UpdateProfileStatus(c.Request.Context(), currentUserID(c), profileID, req.Status); err != nil {
		code := apperr.HTTPStatus(err)
		c.JSON(code, response.Error(code, apperr.UserMessage(err)))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, gin.H{
		"message": "Verification status updated",
	}))
}
