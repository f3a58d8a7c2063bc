package auth

import (
	"fmt"

	"github.com/gin-gonic/gin"
)

// ActorKind identifica se quem age é um cliente ou uma empresa
type ActorKind string

const (
	ActorClient  ActorKind = "client"
	ActorCompany ActorKind = "company"
)

// Actor é a identidade resolvida pela camada de sessão
type Actor struct {
	ID   int64     `json:"id"`
	Kind ActorKind `json:"kind"`
	Name string    `json:"name"`
}

func (a Actor) IsClient() bool  { return a.Kind == ActorClient }
func (a Actor) IsCompany() bool { return a.Kind == ActorCompany }

func (a Actor) String() string {
	return fmt.Sprintf("%s:%d", a.Kind, a.ID)
}

const ActorKey = "actor"

// ActorFrom lê o Actor que o middleware gravou no contexto do gin
func ActorFrom(c *gin.Context) (Actor, bool) {
	value, exists := c.Get(ActorKey)
	if !exists {
		return Actor{}, false
	}
	actor, ok := value.(Actor)
	return actor, ok
}
