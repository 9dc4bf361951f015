package controllers

import (
	"log/slog"
	"net/http"

	h "academicevents/internal/delivery/http/helpers"
	"academicevents/internal/domain"
)

type CertificateController struct {
	Logger  *slog.Logger
	Service domain.CertificateService
}

func NewCertificateController(logger *slog.Logger, svc domain.CertificateService) *CertificateController {
	return &CertificateController{
		Logger:  logger,
		Service: svc,
	}
}

// ListMine godoc
// @Summary List the caller's certificates
// @Tags certificates
// @Produce json
// @Security BearerAuth
// @Success 200 {object} helpers.APIResponse "data contains certificates with event context"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Router /certificates [get]
func (c *CertificateController) ListMine(w http.ResponseWriter, r *http.Request) {
	actor, ok := requirePrincipal(w, r)
	if !ok {
		return
	}
	certs, err := c.Service.ListMine(r.Context(), actor)
	if err != nil {
		h.WriteServiceError(r.Context(), w, r, c.Logger, err)
		return
	}
	h.WriteJSONSuccess(w, http.StatusOK, certs)
}

// Verify godoc
// @Summary Verify a certificate
// @Description Public lookup by verification code.
// @Tags certificates
// @Produce json
// @Param code path string true "Verification code"
// @Success 200 {object} helpers.APIResponse "data contains the certificate"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Router /certificates/verify/{code} [get]
func (c *CertificateController) Verify(w http.ResponseWriter, r *http.Request) {
	code := r.PathValue("code")
	if code == "" {
		h.WriteJSONError(w, http.StatusBadRequest, h.ErrCodeBadRequest, "missing code")
		return
	}
	cert, err := c.Service.Verify(r.Context(), code)
	if err != nil {
		h.WriteServiceError(r.Context(), w, r, c.Logger, err)
		return
	}
	h.WriteJSONSuccess(w, http.StatusOK, cert)
}
