package controllers

import (
	"net/http"
	"strconv"

	"debtbook/goldprice"
	"debtbook/utils"
)

// SystemController отдает цену золота и метрики
type SystemController struct {
	gold    goldprice.Source
	metrics *utils.Metrics
}

// NewSystemController создает новый экземпляр SystemController
func NewSystemController(gold goldprice.Source, metrics *utils.Metrics) *SystemController {
	return &SystemController{gold: gold, metrics: metrics}
}

// GoldPrice возвращает текущую цену грамма золота; ?force=true обходит кеш
func (c *SystemController) GoldPrice(w http.ResponseWriter, r *http.Request) {
	force, _ := strconv.ParseBool(r.URL.Query().Get("force"))

	quote, err := c.gold.Current(r.Context(), force)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, quote)
}

// Metrics возвращает снимок метрик
func (c *SystemController) Metrics(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, c.metrics.GetMetricsSnapshot())
}
