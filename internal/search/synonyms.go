package search

// Synonym tables for query expansion. Terms are matched after tokenization,
// so keys and values are lowercase with diacritics folded. Expansion maps
// user vocabulary to corpus vocabulary (question words to the nouns that
// knowledge-base articles actually use).
//
// maxExpansionsPerTerm bounds noise: only the first expansions of a term
// are added to the query.
const maxExpansionsPerTerm = 3

// genericSynonyms apply to every vertical.
var genericSynonyms = map[string][]string{
	// price questions
	"cuesta":  {"precio", "precios", "costo"},
	"cuestan": {"precio", "precios", "costo"},
	"cuanto":  {"precio", "costo", "tarifa"},
	"vale":    {"precio", "costo"},
	"precio":  {"precios", "costo", "tarifa"},
	"precios": {"precio", "costo", "tarifa"},
	"costo":   {"precio", "tarifa"},
	"tarifa":  {"precio", "costo"},
	"cost":    {"price", "pricing", "fee"},
	"price":   {"pricing", "cost", "fee"},

	// schedule questions
	"abren":   {"horario", "horarios", "apertura"},
	"cierran": {"horario", "horarios", "cierre"},
	"horario": {"horarios", "apertura", "atencion"},
	"hora":    {"horario", "horarios"},
	"hours":   {"schedule", "opening", "open"},
	"open":    {"hours", "schedule", "opening"},

	// booking
	"reservar": {"reserva", "cita", "turno"},
	"reserva":  {"cita", "turno", "agendar"},
	"cita":     {"reserva", "turno", "agendar"},
	"turno":    {"cita", "reserva"},
	"agendar":  {"cita", "reserva", "turno"},
	"booking":  {"appointment", "reservation", "schedule"},

	// cancellation
	"cancelar":     {"cancelacion", "anular", "reembolso"},
	"cancelacion":  {"cancelar", "anular", "reembolso"},
	"anular":       {"cancelar", "cancelacion"},
	"devolucion":   {"reembolso", "devoluciones", "cancelacion"},
	"reembolso":    {"devolucion", "cancelacion"},
	"cancel":       {"cancellation", "refund"},
	"cancellation": {"cancel", "refund", "policy"},

	// payment
	"pagar": {"pago", "pagos", "tarjeta"},
	"pago":  {"pagos", "tarjeta", "efectivo"},
	"pagos": {"pago", "tarjeta", "efectivo"},

	// location
	"donde":     {"direccion", "ubicacion"},
	"direccion": {"ubicacion", "mapa"},
	"ubicacion": {"direccion", "mapa"},
	"llegar":    {"direccion", "ubicacion"},
}

// dentalSynonyms extend the generic table for dental-clinic tenants.
var dentalSynonyms = map[string][]string{
	"muela":          {"diente", "dental", "dolor"},
	"muelas":         {"diente", "dental", "dolor"},
	"diente":         {"dental", "muela"},
	"dientes":        {"dental", "diente"},
	"dolor":          {"urgencia", "emergencia", "tratamiento"},
	"limpieza":       {"profilaxis", "higiene", "dental"},
	"blanquear":      {"blanqueamiento", "estetica"},
	"blanqueamiento": {"estetica", "dental"},
	"brackets":       {"ortodoncia", "alineadores"},
	"frenos":         {"ortodoncia", "brackets"},
	"ortodoncia":     {"brackets", "alineadores"},
	"conducto":       {"endodoncia", "tratamiento"},
	"endodoncia":     {"conducto", "tratamiento"},
	"implante":       {"implantes", "protesis"},
	"corona":         {"protesis", "restauracion"},
	"caries":         {"empaste", "restauracion", "tratamiento"},
	"empaste":        {"caries", "restauracion"},
}

// restaurantSynonyms extend the generic table for restaurant tenants.
var restaurantSynonyms = map[string][]string{
	"menu":         {"carta", "platos", "comida"},
	"carta":        {"menu", "platos"},
	"plato":        {"platos", "menu", "comida"},
	"comida":       {"menu", "platos", "carta"},
	"comer":        {"menu", "comida", "platos"},
	"mesa":         {"reserva", "reservas"},
	"vegetariano":  {"vegano", "vegetal", "menu"},
	"vegano":       {"vegetariano", "menu"},
	"celiaco":      {"gluten", "alergias"},
	"gluten":       {"celiaco", "alergias"},
	"alergia":      {"alergias", "ingredientes"},
	"alergias":     {"ingredientes", "alergia"},
	"delivery":     {"domicilio", "envio", "pedido"},
	"domicilio":    {"delivery", "envio"},
	"pedido":       {"delivery", "domicilio"},
	"estacionar":   {"parking", "estacionamiento"},
	"parking":      {"estacionamiento"},
	"terraza":      {"exterior", "mesas"},
	"cumpleanos":   {"evento", "eventos", "celebracion"},
	"evento":       {"eventos", "celebracion", "reserva"},
}

// categoryHints map query terms to inferred categories per vertical.
var categoryHints = map[string]map[string][]string{
	"": {
		"precio":      {"pricing"},
		"precios":     {"pricing"},
		"costo":       {"pricing"},
		"tarifa":      {"pricing"},
		"horario":     {"hours"},
		"horarios":    {"hours"},
		"apertura":    {"hours"},
		"cita":        {"booking"},
		"reserva":     {"booking"},
		"turno":       {"booking"},
		"cancelacion": {"policies"},
		"cancelar":    {"policies"},
		"reembolso":   {"policies"},
		"devolucion":  {"policies"},
		"pago":        {"pricing"},
		"pagos":       {"pricing"},
	},
	"dental": {
		"limpieza":       {"services"},
		"ortodoncia":     {"services"},
		"brackets":       {"services"},
		"endodoncia":     {"services"},
		"blanqueamiento": {"services"},
		"implante":       {"services"},
		"urgencia":       {"emergencies"},
		"emergencia":     {"emergencies"},
		"dolor":          {"emergencies"},
	},
	"restaurant": {
		"menu":        {"menu"},
		"carta":       {"menu"},
		"platos":      {"menu"},
		"vegetariano": {"menu"},
		"vegano":      {"menu"},
		"gluten":      {"menu"},
		"delivery":    {"delivery"},
		"domicilio":   {"delivery"},
		"evento":      {"events"},
		"eventos":     {"events"},
	},
}

// synonymsFor returns the expansions for a term in the given vertical.
// Vertical tables win over the generic table.
func synonymsFor(vertical, term string) []string {
	var table map[string][]string
	switch vertical {
	case "dental":
		table = dentalSynonyms
	case "restaurant":
		table = restaurantSynonyms
	}
	if table != nil {
		if syns, ok := table[term]; ok {
			return syns
		}
	}
	return genericSynonyms[term]
}

// categoriesFor returns the inferred categories for a term, combining the
// vertical's hints with the generic ones.
func categoriesFor(vertical, term string) []string {
	var out []string
	if hints, ok := categoryHints[vertical]; ok && vertical != "" {
		out = append(out, hints[term]...)
	}
	out = append(out, categoryHints[""][term]...)
	return out
}
