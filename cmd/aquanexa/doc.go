// Command aquanexa ingests heterogeneous marine research data files,
// standardizes their contents, and unifies them into per-event aggregate
// records that can be queried and exported.
package main
