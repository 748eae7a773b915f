package controllers

import (
	"net/http"

	"referral-tracking-api/models"
	"referral-tracking-api/services"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type AdminController struct {
	admin *services.AdminService
}

func NewAdminController(admin *services.AdminService) *AdminController {
	return &AdminController{admin: admin}
}

type DepartmentRequest struct {
	Name      string            `json:"name"`
	Reviewers []models.Reviewer `json:"reviewers"`
}

/* ==========================
   Departments
   ========================== */

func (ac *AdminController) ListDepartments(c *gin.Context) {
	depts, err := ac.admin.ListDepartments(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, depts)
}

func (ac *AdminController) CreateDepartment(c *gin.Context) {
	var req DepartmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	dept, err := ac.admin.CreateDepartment(c.Request.Context(), req.Name, req.Reviewers)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, dept)
}

// UpdateDepartment replaces the reviewer roster and syncs the SBUs.
func (ac *AdminController) UpdateDepartment(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid department id"})
		return
	}
	var req DepartmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if _, err := ac.admin.UpdateReviewers(c.Request.Context(), id, req.Reviewers); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Reviewers and SBUs synced"})
}

/* ==========================
   SBUs
   ========================== */

func (ac *AdminController) ListSBUs(c *gin.Context) {
	sbus, err := ac.admin.ListSBUs(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, sbus)
}

func (ac *AdminController) CreateSBU(c *gin.Context) {
	var req services.SBUInput
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	sbu, err := ac.admin.CreateSBU(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, sbu)
}

func (ac *AdminController) UpdateSBU(c *gin.Context) {
	var req services.SBUInput
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if _, err := ac.admin.UpdateSBU(c.Request.Context(), c.Param("email"), req); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "SBU updated"})
}

// RemoveSBU handles DELETE /admin/sbus/:email?department_id=
func (ac *AdminController) RemoveSBU(c *gin.Context) {
	raw := c.Query("department_id")
	if raw == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Department ID required"})
		return
	}
	deptID, err := uuid.Parse(raw)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid department id"})
		return
	}
	deleted, err := ac.admin.RemoveFromDepartment(c.Request.Context(), c.Param("email"), deptID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message":     "Reviewer removed from department and SBU updated",
		"sbu_deleted": deleted,
	})
}

/* ==========================
   Email templates
   ========================== */

func (ac *AdminController) ListEmailTemplates(c *gin.Context) {
	rows, err := ac.admin.ListEmailTemplates(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	out := make([]gin.H, 0, len(rows))
	for _, t := range rows {
		out = append(out, gin.H{
			"id":        t.ID,
			"purpose":   t.Purpose,
			"label":     models.PurposeLabels[t.Purpose],
			"subject":   t.Subject,
			"html_body": t.HTMLBody,
		})
	}
	c.JSON(http.StatusOK, out)
}

func (ac *AdminController) GetEmailTemplate(c *gin.Context) {
	tmpl, err := ac.admin.GetEmailTemplate(c.Request.Context(), c.Param("purpose"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, tmpl)
}

func (ac *AdminController) UpdateEmailTemplate(c *gin.Context) {
	var req services.TemplateInput
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	tmpl, err := ac.admin.UpdateEmailTemplate(c.Request.Context(), c.Param("purpose"), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, tmpl)
}
