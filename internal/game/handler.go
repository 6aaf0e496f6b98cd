package game

import (
	"net/http"

	"github.com/chiptally/homegame-backend/internal/ledger"
	"github.com/chiptally/homegame-backend/internal/pkg/middleware"
	"github.com/chiptally/homegame-backend/internal/pkg/model"
	"github.com/chiptally/homegame-backend/internal/pkg/reject"
	"github.com/chiptally/homegame-backend/internal/pkg/utils"
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

type gameHandler struct {
	gameService *gameService
}

func RegisterRoutes(rg *gin.RouterGroup, store ledger.Store) {
	handler := gameHandler{
		gameService: newGameService(store),
	}

	routes := rg.Group("/games")
	routes.POST("", middleware.VerifyAuthToken, handler.createGame)
	routes.GET("", middleware.VerifyAuthToken, handler.listGames)
	routes.GET("/:id", middleware.VerifyAuthToken, handler.getGame)
	routes.GET("/:id/history", middleware.VerifyAuthToken, handler.getHistory)

	routes.POST("/:id/buy-ins", middleware.VerifyAuthToken, handler.requestBuyIn)
	routes.POST("/:id/host-buy-ins", middleware.VerifyAuthToken, handler.hostBuyIn)
	routes.POST("/:id/buy-ins/:requestId/approve", middleware.VerifyAuthToken, handler.approveBuyIn)
	routes.POST("/:id/buy-ins/:requestId/decline", middleware.VerifyAuthToken, handler.declineBuyIn)

	routes.POST("/:id/cash-outs", middleware.VerifyAuthToken, handler.requestCashOut)
	routes.POST("/:id/cash-outs/:requestId/process", middleware.VerifyAuthToken, handler.processCashOut)
	routes.POST("/:id/settlement-cash-outs", middleware.VerifyAuthToken, handler.settlementCashOut)
	routes.POST("/:id/end", middleware.VerifyAuthToken, handler.endGame)
}

func callerFrom(c *gin.Context) Caller {
	return Caller{
		UserId:      utils.GetUserExternalId(c),
		DisplayName: utils.GetUserDisplayName(c),
	}
}

type CreateGameRequest struct {
	Title   string `json:"title"`
	GroupId string `json:"groupId"`
}

func (gh *gameHandler) createGame(c *gin.Context) {
	body := CreateGameRequest{}
	if err := c.BindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, reject.BodyParseProblem())
		return
	}

	record, err := gh.gameService.createGame(c.Request.Context(), body.Title, body.GroupId, callerFrom(c))
	if err != nil {
		problem := problemFor(err)
		c.JSON(problem.Status, problem)
		return
	}

	c.JSON(http.StatusCreated, record)
}

func (gh *gameHandler) getGame(c *gin.Context) {
	record, err := gh.gameService.getGame(c.Request.Context(), c.Param("id"))
	if err != nil {
		problem := problemFor(err)
		c.JSON(problem.Status, problem)
		return
	}

	c.JSON(http.StatusOK, record)
}

func (gh *gameHandler) listGames(c *gin.Context) {
	page, pageErr := utils.NewPageRequest(c)
	if pageErr != nil {
		c.JSON(pageErr.Problem.Status, pageErr.Problem)
		return
	}

	records, total, err := gh.gameService.listGames(c.Request.Context(), c.Query("group_id"), page.Size, page.Offset)
	if err != nil {
		problem := problemFor(err)
		c.JSON(problem.Status, problem)
		return
	}

	response := utils.NewPageResponse[model.GameRecord]().
		WithItems(records).
		WithItemCount(total)
	c.JSON(http.StatusOK, response.Build())
}

func (gh *gameHandler) getHistory(c *gin.Context) {
	history, err := gh.gameService.getHistory(c.Request.Context(), c.Param("id"))
	if err != nil {
		problem := problemFor(err)
		c.JSON(problem.Status, problem)
		return
	}

	c.JSON(http.StatusOK, history)
}

type AmountRequest struct {
	Amount decimal.Decimal `json:"amount"`
}

func (gh *gameHandler) requestBuyIn(c *gin.Context) {
	body := AmountRequest{}
	if err := c.BindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, reject.BodyParseProblem())
		return
	}

	record, err := gh.gameService.requestBuyIn(c.Request.Context(), c.Param("id"), body.Amount, callerFrom(c))
	if err != nil {
		problem := problemFor(err)
		c.JSON(problem.Status, problem)
		return
	}

	c.JSON(http.StatusOK, record)
}

func (gh *gameHandler) hostBuyIn(c *gin.Context) {
	body := AmountRequest{}
	if err := c.BindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, reject.BodyParseProblem())
		return
	}

	record, err := gh.gameService.hostBuyIn(c.Request.Context(), c.Param("id"), body.Amount, callerFrom(c))
	if err != nil {
		problem := problemFor(err)
		c.JSON(problem.Status, problem)
		return
	}

	c.JSON(http.StatusOK, record)
}

func (gh *gameHandler) approveBuyIn(c *gin.Context) {
	record, err := gh.gameService.approveBuyIn(c.Request.Context(), c.Param("id"), c.Param("requestId"), callerFrom(c))
	if err != nil {
		problem := problemFor(err)
		c.JSON(problem.Status, problem)
		return
	}

	c.JSON(http.StatusOK, record)
}

func (gh *gameHandler) declineBuyIn(c *gin.Context) {
	record, err := gh.gameService.declineBuyIn(c.Request.Context(), c.Param("id"), c.Param("requestId"), callerFrom(c))
	if err != nil {
		problem := problemFor(err)
		c.JSON(problem.Status, problem)
		return
	}

	c.JSON(http.StatusOK, record)
}

func (gh *gameHandler) requestCashOut(c *gin.Context) {
	body := AmountRequest{}
	if err := c.BindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, reject.BodyParseProblem())
		return
	}

	record, err := gh.gameService.requestCashOut(c.Request.Context(), c.Param("id"), body.Amount, callerFrom(c))
	if err != nil {
		problem := problemFor(err)
		c.JSON(problem.Status, problem)
		return
	}

	c.JSON(http.StatusOK, record)
}

func (gh *gameHandler) processCashOut(c *gin.Context) {
	record, err := gh.gameService.processCashOut(c.Request.Context(), c.Param("id"), c.Param("requestId"), callerFrom(c))
	if err != nil {
		problem := problemFor(err)
		c.JSON(problem.Status, problem)
		return
	}

	c.JSON(http.StatusOK, record)
}

type SettlementCashOutRequest struct {
	PlayerId string          `json:"playerId"`
	UserId   string          `json:"userId"`
	Amount   decimal.Decimal `json:"amount"`
}

func (gh *gameHandler) settlementCashOut(c *gin.Context) {
	body := SettlementCashOutRequest{}
	if err := c.BindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, reject.BodyParseProblem())
		return
	}

	record, err := gh.gameService.processCashoutForGameEnd(
		c.Request.Context(), c.Param("id"), body.PlayerId, body.UserId, body.Amount, callerFrom(c))
	if err != nil {
		problem := problemFor(err)
		c.JSON(problem.Status, problem)
		return
	}

	c.JSON(http.StatusOK, record)
}

func (gh *gameHandler) endGame(c *gin.Context) {
	record, err := gh.gameService.endGame(c.Request.Context(), c.Param("id"), callerFrom(c))
	if err != nil {
		problem := problemFor(err)
		c.JSON(problem.Status, problem)
		return
	}

	c.JSON(http.StatusOK, record)
}
