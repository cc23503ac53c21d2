package api

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/banking/sanctions-screening/internal/similarity"
	"github.com/banking/sanctions-screening/internal/transliteration"
)

// NamesHandler exposes the name comparison tools used by analysts
type NamesHandler struct{}

func NewNamesHandler() *NamesHandler {
	return &NamesHandler{}
}

type nameMatchRequest struct {
	Name1      string  `json:"name1"`
	Name2      string  `json:"name2"`
	Threshold  float64 `json:"threshold"`
	StrictMode bool    `json:"strict_mode"`
}

type nameMatchResponse struct {
	similarity.NameMatch
	Phonetic map[string]similarity.PhoneticCodes `json:"phonetic"`
}

// Match handles POST /screening/names/match
func (h *NamesHandler) Match(c echo.Context) error {
	var req nameMatchRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request body"})
	}
	if strings.TrimSpace(req.Name1) == "" || strings.TrimSpace(req.Name2) == "" {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "name1 and name2 are required"})
	}
	if req.Threshold < 0 || req.Threshold > 1 {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "threshold must be between 0 and 1"})
	}

	res := similarity.IsNameMatch(req.Name1, req.Name2, similarity.NameMatchOptions{
		Threshold:  req.Threshold,
		StrictMode: req.StrictMode,
	})
	return c.JSON(http.StatusOK, nameMatchResponse{
		NameMatch: res,
		Phonetic: map[string]similarity.PhoneticCodes{
			"name1": similarity.AllPhoneticCodes(req.Name1),
			"name2": similarity.AllPhoneticCodes(req.Name2),
		},
	})
}

type romanizeRequest struct {
	Name string `json:"name"`
}

// Romanize handles POST /screening/names/romanize
func (h *NamesHandler) Romanize(c echo.Context) error {
	var req romanizeRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request body"})
	}
	if strings.TrimSpace(req.Name) == "" {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "name is required"})
	}
	return c.JSON(http.StatusOK, transliteration.NormalizeName(req.Name))
}

type chineseMatchRequest struct {
	Candidate    string  `json:"candidate"`
	ChineseName  string  `json:"chinese_name"`
	Threshold    float64 `json:"threshold"`
	DisableFuzzy bool    `json:"disable_fuzzy"`
}

// MatchChinese handles POST /screening/names/match-chinese
func (h *NamesHandler) MatchChinese(c echo.Context) error {
	var req chineseMatchRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request body"})
	}
	if strings.TrimSpace(req.Candidate) == "" {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "candidate is required"})
	}
	if !transliteration.ContainsChinese(req.ChineseName) {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "chinese_name must contain Chinese characters"})
	}

	res := transliteration.MatchChineseName(req.Candidate, req.ChineseName, transliteration.MatchOptions{
		Threshold:    req.Threshold,
		DisableFuzzy: req.DisableFuzzy,
	})
	return c.JSON(http.StatusOK, res)
}

func (h *NamesHandler) RegisterRoutes(g *echo.Group) {
	g.POST("/match", h.Match)
	g.POST("/romanize", h.Romanize)
	g.POST("/match-chinese", h.MatchChinese)
}
