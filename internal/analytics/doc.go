// Package analytics derives aggregate views from normalized tables: the
// top-N entity aggregation behind the ridership board, and the bakery menu
// operations (categorization, dayparts, popularity, recommendations,
// day-type comparison). All functions are pure over their input table.
package analytics
