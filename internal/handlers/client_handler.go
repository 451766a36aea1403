package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/grupoterrena/terrena-api/internal/models"
	"github.com/grupoterrena/terrena-api/internal/repository"
	"github.com/grupoterrena/terrena-api/internal/services"
)

type ClientHandler struct {
	clientService *services.ClientService
}

func NewClientHandler(clientService *services.ClientService) *ClientHandler {
	return &ClientHandler{clientService: clientService}
}

func (h *ClientHandler) Index(c *gin.Context) {
	query := repository.NewListQuery()
	query.Page, _ = strconv.Atoi(c.DefaultQuery("page", "1"))
	query.PerPage, _ = strconv.Atoi(c.DefaultQuery("per_page", "20"))
	query.Search = c.Query("search_term")

	clients, total, err := h.clientService.List(c.Request.Context(), query)
	if err != nil {
		respondError(c, err)
		return
	}

	var responses []interface{}
	for i := range clients {
		responses = append(responses, clients[i].ToResponse())
	}

	c.JSON(http.StatusOK, gin.H{
		"clients": responses,
		"pagination": gin.H{
			"page":     query.Page,
			"per_page": query.PerPage,
			"total":    total,
		},
	})
}

func (h *ClientHandler) Show(c *gin.Context) {
	id, _ := strconv.ParseUint(c.Param("client_id"), 10, 32)
	client, err := h.clientService.FindByID(c.Request.Context(), uint(id))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"client": client.ToResponse()})
}

func (h *ClientHandler) Create(c *gin.Context) {
	var client models.Client
	if err := BindNestedOrFlat(c, "client", &client); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.clientService.Create(c.Request.Context(), &client, actorFrom(c)); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"client": client.ToResponse()})
}

func (h *ClientHandler) Update(c *gin.Context) {
	id, _ := strconv.ParseUint(c.Param("client_id"), 10, 32)
	var client models.Client
	if err := BindNestedOrFlat(c, "client", &client); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	client.ID = uint(id)

	if err := h.clientService.Update(c.Request.Context(), &client, actorFrom(c)); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"client": client.ToResponse()})
}

// Sales lists all sales of a client
func (h *ClientHandler) Sales(c *gin.Context) {
	id, _ := strconv.ParseUint(c.Param("client_id"), 10, 32)
	sales, err := h.clientService.Sales(c.Request.Context(), uint(id))
	if err != nil {
		respondError(c, err)
		return
	}

	var responses []interface{}
	for i := range sales {
		responses = append(responses, sales[i].ToResponse())
	}
	c.JSON(http.StatusOK, gin.H{"sales": responses})
}
