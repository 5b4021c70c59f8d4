package api

import (
	stderrors "errors"
	"net/http"
	"time"

	apperrors "github.com/fleetlens/fleetlens/internal/errors"
	"github.com/fleetlens/fleetlens/internal/report"
	"github.com/fleetlens/fleetlens/internal/telematics"
	"github.com/fleetlens/fleetlens/internal/token"
	"github.com/gin-gonic/gin"
)

// SaveConfigRequest is the credential-save payload.
type SaveConfigRequest struct {
	ClientID    string `json:"clientId" binding:"required"`
	APIKey      string `json:"apiKey" binding:"required"`
	RedirectURI string `json:"redirectUri,omitempty"`
}

// handleGetConfig returns the stored credential record
func (s *Server) handleGetConfig(c *gin.Context) {
	record := s.configs.Load()
	if record == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "API configuration not found"})
		return
	}
	c.JSON(http.StatusOK, record)
}

// handleSaveConfig saves the credential record, overwriting any prior one
func (s *Server) handleSaveConfig(c *gin.Context) {
	var req SaveConfigRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "clientId and apiKey are required"})
		return
	}

	record, err := s.configs.Save(req.ClientID, req.APIKey, req.RedirectURI)
	if err != nil {
		s.respondError(c, err)
		return
	}

	s.logger.InfoWithContext(c.Request.Context(), "API configuration saved",
		"client_id", record.ClientID,
	)
	c.JSON(http.StatusOK, record)
}

// handleDeleteConfig removes the credential record
func (s *Server) handleDeleteConfig(c *gin.Context) {
	if err := s.configs.Delete(); err != nil {
		s.respondError(c, err)
		return
	}

	s.logger.InfoWithContext(c.Request.Context(), "API configuration deleted")
	c.JSON(http.StatusOK, gin.H{"message": "API configuration deleted"})
}

// handleDeveloperToken exchanges the stored credentials for a developer token
func (s *Server) handleDeveloperToken(c *gin.Context) {
	record := s.configs.Load()
	if record == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "API configuration not found, save credentials first"})
		return
	}

	devToken, err := s.vendor.ExchangeDeveloperToken(c.Request.Context(), record)
	if err != nil {
		s.metrics.RecordVendorCall("developer_token", "error")
		s.respondError(c, err)
		return
	}

	s.metrics.RecordVendorCall("developer_token", "success")
	c.JSON(http.StatusOK, devToken)
}

// VehicleTokenRequest is the vehicle-token exchange payload.
type VehicleTokenRequest struct {
	TokenID      string `json:"tokenId" binding:"required"`
	DeveloperJWT string `json:"developerJwt" binding:"required"`
}

// handleVehicleToken mints a vehicle-scoped token from a developer token
func (s *Server) handleVehicleToken(c *gin.Context) {
	var req VehicleTokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "tokenId and developerJwt are required"})
		return
	}

	// Cheap pre-check so an already-expired token fails fast with a clear
	// message instead of a vendor round trip.
	if token.IsExpired(req.DeveloperJWT, time.Now()) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "developerJwt is expired"})
		return
	}

	vehicleToken, err := s.vendor.GetVehicleToken(c.Request.Context(), req.DeveloperJWT, req.TokenID,
		[]int{telematics.PrivilegeTelemetryRead})
	if err != nil {
		s.metrics.RecordVendorCall("vehicle_token", "error")
		s.respondError(c, err)
		return
	}

	s.metrics.RecordVendorCall("vehicle_token", "success")
	c.JSON(http.StatusOK, vehicleToken)
}

// handleListVehicles lists vehicles visible to the configured credentials
func (s *Server) handleListVehicles(c *gin.Context) {
	record := s.configs.Load()
	if record == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "API configuration not found, save credentials first"})
		return
	}

	devToken, err := s.vendor.ExchangeDeveloperToken(c.Request.Context(), record)
	if err != nil {
		s.metrics.RecordVendorCall("developer_token", "error")
		s.respondError(c, err)
		return
	}

	page, err := s.vendor.ListVehicles(c.Request.Context(), devToken.AccessToken, record.ClientID, c.Query("after"))
	if err != nil {
		s.metrics.RecordVendorCall("vehicles", "error")
		s.respondError(c, err)
		return
	}

	s.metrics.RecordVendorCall("vehicles", "success")
	c.JSON(http.StatusOK, page)
}

// GenerateReportRequest is the report-generation payload.
type GenerateReportRequest struct {
	VehicleTokenIDs []string `json:"vehicleTokenIds" binding:"required"`
	StartDate       string   `json:"startDate" binding:"required"`
	EndDate         string   `json:"endDate" binding:"required"`
}

// handleGenerateReport runs the report pipeline and persists the CSV
func (s *Server) handleGenerateReport(c *gin.Context) {
	var req GenerateReportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "vehicleTokenIds, startDate and endDate are required"})
		return
	}

	result, err := s.generator.Generate(c.Request.Context(), report.Request{
		VehicleTokenIDs: req.VehicleTokenIDs,
		StartDate:       req.StartDate,
		EndDate:         req.EndDate,
	})
	if err != nil {
		s.metrics.RecordError("report_generation", "/api/reports/generate", "POST")
		s.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":     "report generated",
		"filename":    result.Filename,
		"recordCount": result.RecordCount,
		"downloadUrl": result.DownloadURL,
	})
}

// handleListReports returns stored report filenames
func (s *Server) handleListReports(c *gin.Context) {
	names, err := s.reports.List()
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"reports": names})
}

// handleDownloadReport streams a stored CSV artifact
func (s *Server) handleDownloadReport(c *gin.Context) {
	filename := c.Param("filename")

	path, err := s.reports.Path(filename)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "report not found"})
		return
	}

	c.Header("Content-Type", "text/csv")
	c.FileAttachment(path, filename)
}

// respondError maps the error taxonomy onto HTTP statuses: bad caller
// input and missing configuration are 400, missing resources 404,
// everything upstream or unexpected is 500.
func (s *Server) respondError(c *gin.Context, err error) {
	var (
		validation    *apperrors.ErrValidation
		configMissing *apperrors.ErrConfigMissing
		notFound      *apperrors.ErrNotFound
	)

	status := http.StatusInternalServerError
	switch {
	case stderrors.As(err, &validation), stderrors.As(err, &configMissing):
		status = http.StatusBadRequest
	case stderrors.As(err, &notFound):
		status = http.StatusNotFound
	}

	if status == http.StatusInternalServerError {
		s.logger.ErrorWithContext(c.Request.Context(), "request failed",
			"path", c.Request.URL.Path,
			"error", err.Error(),
		)
	}

	c.JSON(status, gin.H{"error": err.Error()})
}
