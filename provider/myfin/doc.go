// Package myfin collects bank currency quotes from the ru.myfin.by listing.
//
// # Source
//
// URL: https://ru.myfin.by/currency (first page)
// URL: https://ru.myfin.by/currency?page=N (N = 2..4)
//
// Every listing page holds a table.content_table, one row per bank.
// A row carries:
//
//   - the bank display name (td.bank_name)
//   - a link to the bank page, /bank/<key>/currency, whose <key> segment
//     is the bank's stable identifier
//   - USD buy and sell (first and second td.USD)
//   - EUR buy and sell (first and second td.EUR)
//   - the publication time (<time>), kept verbatim
//
// Rates use a decimal comma ("92,50"), and may contain spaces.
//
// # Row filtering
//
// Rows are parsed independently. A row is skipped (and logged) when:
//
//   - the name cell is missing
//   - any of the four rates is missing or not a number
//   - the link is missing, points to another host, or has no key segment
//     (promotional rows)
//
// A page without the table yields no quotes, it is never an error.
//
// # Collection
//
// All pages are fetched concurrently. The collection is all-or-nothing:
// if any page fails after retries, no quotes are returned.
package myfin
