package domain

type Role string

const (
	RoleWorker  Role = "worker"
	RoleManager Role = "manager"
	RoleAdmin   Role = "admin"
)

// Worker: запись справочника работников. Атрибут IsWorking меняет только
// хранилище отметок, в той же транзакции, что и саму отметку.
type Worker struct {
	ID        int64  `json:"id"`
	Name      string `json:"name"`
	ChatID    int64  `json:"chat_id"`
	Role      Role   `json:"role"`
	Shift     Shift  `json:"shift"`
	ManagerID int64  `json:"manager_id"`
	IsWorking bool   `json:"is_working"`
}

func (w Worker) CanManage() bool {
	return w.Role == RoleManager || w.Role == RoleAdmin
}

// Creator возвращает ссылку на работника как на автора записи.
func (w Worker) Creator() Creator {
	switch w.Role {
	case RoleAdmin:
		return Creator{Type: CreatorAdmin, ID: w.ID}
	case RoleManager:
		return Creator{Type: CreatorManager, ID: w.ID}
	}
	return Creator{Type: CreatorWorker, ID: w.ID}
}
