// Package models содержит доменные сущности admin-api.
package models

import (
	"time"

	"github.com/google/uuid"
)

// Role — роль пользователя платформы.
type Role string

const (
	// RoleSuperadmin — администратор платформы, видит все компании.
	RoleSuperadmin Role = "superadmin"
	// RoleCompanyAdmin — администратор конкретной компании-исполнителя.
	RoleCompanyAdmin Role = "company_admin"
	// RoleCustomer — конечный клиент, заказчик услуг.
	RoleCustomer Role = "customer"
)

// Valid сообщает, известна ли роль.
func (r Role) Valid() bool {
	switch r {
	case RoleSuperadmin, RoleCompanyAdmin, RoleCustomer:
		return true
	}

	return false
}

// User — учётная запись панели управления.
// CompanyID заполняется для company_admin (его компания) и используется
// для скоупинга чатов; у superadmin он равен uuid.Nil.
type User struct {
	ID           uuid.UUID
	Email        string
	Name         string
	PasswordHash string
	Role         Role
	CompanyID    uuid.UUID
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
