package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Gopher0727/Fredagslunchen/internal/services"
	logger "github.com/Gopher0727/Fredagslunchen/middleware/log"
)

// LunchHandler 地点、午餐、评分与评分请求
type LunchHandler struct {
	lunches *services.LunchService
	scores  *services.ScoreService
	log     *logger.Logger
}

func NewLunchHandler(lunches *services.LunchService, scores *services.ScoreService, log *logger.Logger) *LunchHandler {
	return &LunchHandler{lunches: lunches, scores: scores, log: log}
}

// AddLocation 为群组添加地点
func (h *LunchHandler) AddLocation(c *gin.Context) {
	groupID, valid := idParam(c, "group_id")
	if !valid {
		return
	}
	var req services.AddLocationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	gl, err := h.lunches.AddLocation(c.Request.Context(), groupID, currentUserID(c), &req)
	if err != nil {
		fail(c, h.log, err)
		return
	}
	ok(c, http.StatusCreated, gl)
}

// CreateLunch 创建午餐
func (h *LunchHandler) CreateLunch(c *gin.Context) {
	var req services.CreateLunchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	lunch, err := h.lunches.CreateLunch(c.Request.Context(), &req, currentUserID(c))
	if err != nil {
		fail(c, h.log, err)
		return
	}
	ok(c, http.StatusCreated, lunch)
}

// GetLunch 午餐详情（含评分）
func (h *LunchHandler) GetLunch(c *gin.Context) {
	lunchID, valid := idParam(c, "lunch_id")
	if !valid {
		return
	}

	lunch, err := h.lunches.GetLunch(c.Request.Context(), lunchID, currentUserID(c))
	if err != nil {
		fail(c, h.log, err)
		return
	}
	ok(c, http.StatusOK, lunch)
}

// CreateScore 评分，user_id 为空时为自己评分
func (h *LunchHandler) CreateScore(c *gin.Context) {
	lunchID, valid := idParam(c, "lunch_id")
	if !valid {
		return
	}
	var req services.SubmitScoreRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	requestedBy := currentUserID(c)
	rater := req.UserID
	if rater == 0 {
		rater = requestedBy
	}

	score, err := h.scores.CreateScore(c.Request.Context(), rater, lunchID, *req.Score, req.Comment, requestedBy)
	if err != nil {
		fail(c, h.log, err)
		return
	}
	ok(c, http.StatusOK, score)
}

// DeleteScore 删除自己的评分
func (h *LunchHandler) DeleteScore(c *gin.Context) {
	scoreID, valid := idParam(c, "score_id")
	if !valid {
		return
	}

	if err := h.scores.DeleteScore(c.Request.Context(), scoreID, currentUserID(c)); err != nil {
		fail(c, h.log, err)
		return
	}
	ok(c, http.StatusOK, nil)
}

// CreateScoreRequest 请求群组成员评分
func (h *LunchHandler) CreateScoreRequest(c *gin.Context) {
	lunchID, valid := idParam(c, "lunch_id")
	if !valid {
		return
	}
	var req services.RequestScoreRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	sr, err := h.scores.CreateScoreRequest(c.Request.Context(), req.UserID, lunchID, currentUserID(c))
	if err != nil {
		fail(c, h.log, err)
		return
	}
	ok(c, http.StatusOK, sr)
}

// DeleteScoreRequest 取消评分请求
func (h *LunchHandler) DeleteScoreRequest(c *gin.Context) {
	requestID, valid := idParam(c, "request_id")
	if !valid {
		return
	}

	if err := h.scores.DeleteScoreRequest(c.Request.Context(), requestID, currentUserID(c)); err != nil {
		fail(c, h.log, err)
		return
	}
	ok(c, http.StatusOK, nil)
}

// ListScoreRequests 当前用户待处理的评分请求
func (h *LunchHandler) ListScoreRequests(c *gin.Context) {
	reqs, err := h.scores.ListScoreRequests(c.Request.Context(), currentUserID(c))
	if err != nil {
		fail(c, h.log, err)
		return
	}
	ok(c, http.StatusOK, reqs)
}
