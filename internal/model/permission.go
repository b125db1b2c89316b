package model

import "sort"

// PermissionName は権限カタログの要素
type PermissionName string

const (
	ViewCustomers   PermissionName = "view_customers"
	CreateCustomers PermissionName = "create_customers"
	EditCustomers   PermissionName = "edit_customers"
	DeleteCustomers PermissionName = "delete_customers"

	ViewBrands   PermissionName = "view_brands"
	CreateBrands PermissionName = "create_brands"
	EditBrands   PermissionName = "edit_brands"
	DeleteBrands PermissionName = "delete_brands"

	ViewCategories   PermissionName = "view_categories"
	CreateCategories PermissionName = "create_categories"
	EditCategories   PermissionName = "edit_categories"
	DeleteCategories PermissionName = "delete_categories"

	ViewProducts   PermissionName = "view_products"
	CreateProducts PermissionName = "create_products"
	EditProducts   PermissionName = "edit_products"
	DeleteProducts PermissionName = "delete_products"

	ViewOrders   PermissionName = "view_orders"
	CreateOrders PermissionName = "create_orders"
	EditOrders   PermissionName = "edit_orders"
	DeleteOrders PermissionName = "delete_orders"

	ViewUsers   PermissionName = "view_users"
	CreateUsers PermissionName = "create_users"
	EditUsers   PermissionName = "edit_users"
	DeleteUsers PermissionName = "delete_users"

	ViewRoles   PermissionName = "view_roles"
	CreateRoles PermissionName = "create_roles"
	EditRoles   PermissionName = "edit_roles"
	DeleteRoles PermissionName = "delete_roles"

	ViewPayments   PermissionName = "view_payments"
	CreatePayments PermissionName = "create_payments"
	EditPayments   PermissionName = "edit_payments"
	DeletePayments PermissionName = "delete_payments"

	ViewShipping   PermissionName = "view_shipping"
	CreateShipping PermissionName = "create_shipping"
	EditShipping   PermissionName = "edit_shipping"
	DeleteShipping PermissionName = "delete_shipping"

	ViewPermissions PermissionName = "view_permissions"
)

// ResourcePermissions はCRUDリソースごとの権限セット
type ResourcePermissions struct {
	View   PermissionName
	Create PermissionName
	Edit   PermissionName
	Delete PermissionName
}

var (
	CustomerPermissions = ResourcePermissions{ViewCustomers, CreateCustomers, EditCustomers, DeleteCustomers}
	BrandPermissions    = ResourcePermissions{ViewBrands, CreateBrands, EditBrands, DeleteBrands}
	CategoryPermissions = ResourcePermissions{ViewCategories, CreateCategories, EditCategories, DeleteCategories}
	ProductPermissions  = ResourcePermissions{ViewProducts, CreateProducts, EditProducts, DeleteProducts}
	OrderPermissions    = ResourcePermissions{ViewOrders, CreateOrders, EditOrders, DeleteOrders}
	UserPermissions     = ResourcePermissions{ViewUsers, CreateUsers, EditUsers, DeleteUsers}
	RolePermissions     = ResourcePermissions{ViewRoles, CreateRoles, EditRoles, DeleteRoles}
	PaymentPermissions  = ResourcePermissions{ViewPayments, CreatePayments, EditPayments, DeletePayments}
	ShippingPermissions = ResourcePermissions{ViewShipping, CreateShipping, EditShipping, DeleteShipping}
)

func (r ResourcePermissions) All() []PermissionName {
	return []PermissionName{r.View, r.Create, r.Edit, r.Delete}
}

// permissionDescriptions is the fixed catalog; seeding iterates it.
var permissionDescriptions = map[PermissionName]string{
	ViewPermissions: "List the permission catalog",
}

func init() {
	resources := map[string]ResourcePermissions{
		"customers":  CustomerPermissions,
		"brands":     BrandPermissions,
		"categories": CategoryPermissions,
		"products":   ProductPermissions,
		"orders":     OrderPermissions,
		"users":      UserPermissions,
		"roles":      RolePermissions,
		"payments":   PaymentPermissions,
		"shipping":   ShippingPermissions,
	}
	for resource, perms := range resources {
		permissionDescriptions[perms.View] = "View " + resource
		permissionDescriptions[perms.Create] = "Create " + resource
		permissionDescriptions[perms.Edit] = "Edit " + resource
		permissionDescriptions[perms.Delete] = "Delete " + resource
	}
}

// PermissionCatalog は全権限を名前順で返す
func PermissionCatalog() []PermissionName {
	names := make([]PermissionName, 0, len(permissionDescriptions))
	for name := range permissionDescriptions {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool { return names[i] < names[j] })
	return names
}

// Describe returns the catalog description, or "" for names outside the catalog.
func (p PermissionName) Describe() string {
	return permissionDescriptions[p]
}

func (p PermissionName) Valid() bool {
	_, ok := permissionDescriptions[p]
	return ok
}

// PermissionSet は重複排除済みの権限集合
type PermissionSet map[PermissionName]struct{}

func NewPermissionSet(names ...PermissionName) PermissionSet {
	set := make(PermissionSet, len(names))
	for _, name := range names {
		set[name] = struct{}{}
	}
	return set
}

func (s PermissionSet) Has(name PermissionName) bool {
	_, ok := s[name]
	return ok
}

// Sorted は権限名を昇順で返す
func (s PermissionSet) Sorted() []PermissionName {
	names := make([]PermissionName, 0, len(s))
	for name := range s {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool { return names[i] < names[j] })
	return names
}
