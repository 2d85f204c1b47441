package render

import "fmt"

// User-facing text. The interface has a single, fixed locale.
const (
	LabelTitle          = "Catálogo de productos"
	LabelSelectedTitle  = "Productos seleccionados"
	LabelSelect         = "SELECCIONAR"
	LabelQuantity       = "CANTIDAD:"
	LabelDelete         = "Eliminar"
	LabelAllBrands      = "TODAS LAS MARCAS"
	LabelSearch         = "Buscar por nombre"
	LabelFilter         = "Filtrar"
	LabelPerPage        = "Productos por página"
	LabelAll            = "Todos"
	LabelFirst          = "Primera"
	LabelPrev           = "Anterior"
	LabelNext           = "Siguiente"
	LabelLast           = "Última"
	LabelOpenSelected   = "Ver seleccionados"
	LabelBack           = "Volver al catálogo"
	LabelClear          = "Limpiar selección"
	LabelUpdate         = "Actualizar"
	LabelDownloadPDF    = "Descargar PDF"
	LabelSendMessage    = "Enviar por WhatsApp"
	LabelName           = "Nombre y apellido"
	LabelEmail          = "Correo"
	LabelCountry        = "País"
	LabelPhone          = "WhatsApp"
	LabelBusiness       = "Negocio"
	LabelClose          = "Cerrar"
	LabelNoResults      = "No se encontraron productos."
	NoticeEmpty         = "No hay productos seleccionados."
	NoticeEmptyExport   = "No hay productos seleccionados para enviar."
	NoticeCatalogFailed = "Error al cargar los productos. Por favor, revise la consola para más detalles."
)

// PageInfo formats the pager caption.
func PageInfo(page, total int) string {
	return fmt.Sprintf("Página %d de %d", page, total)
}

// SelectedCount formats the selection badge.
func SelectedCount(n int) string {
	if n == 1 {
		return "1 producto seleccionado"
	}
	return fmt.Sprintf("%d productos seleccionados", n)
}
