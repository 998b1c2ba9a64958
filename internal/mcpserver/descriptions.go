package mcpserver

// Tool descriptions with interpretation guidance for LLMs.
// Each description explains what the tool does, when to use it,
// how to interpret results, and key conventions.

func describeBuildTree() string {
	return `Builds a decomposition tree over a tabular dataset: each hierarchy column becomes a nesting level, each distinct value a node aggregating the rows sharing its value path.

USE WHEN:
- Breaking down delivery counts or metrics by region, team, category, etc.
- Locating which slice of a dataset concentrates delays or volume
- Drilling from a headline number down to the rows behind it
- Comparing sibling segments at any level of a grouping

INTERPRETING RESULTS:
- Node names are "Column: Value"; level -1 is a synthetic root over multiple top groups
- Percentage is always against the whole-tree total, so siblings at any depth compare directly
- status_summary is the modal schedule status of the node's rows (Early, On-Time, Delayed, Pending)
- "No Data" groups collect rows whose partition value is missing
- Leaf nodes carry row_indexes pointing back at the source rows
- For avg rules, divide value by count at any node for the level average

METRICS RETURNED:
- Tree of nodes: value, count, percentage, status_summary, color, tooltip_data
- Summary: node/leaf counts, max depth, leaf status distribution, top level-0 node
- Oversized results are depth-clipped to the token budget; re-query a subtree with filters for detail`
}

func describeKPISummary() string {
	return `Reduces a dataset with planned/actual date columns to headline delivery statistics.

USE WHEN:
- Getting a one-shot health read on a delivery dataset
- Comparing on-time rates before and after filtering (e.g. one region)
- Finding how severe delays are, not just how many
- Spotting which planned time buckets carry the most work

INTERPRETING RESULTS:
- status_counts covers Early, On-Time, Delayed, and Pending rows
- Delay statistics cover only rows late by at least a day: avg, max, p50, p90
- avg_early_days is the mean magnitude of early deliveries, reported separately
- top_buckets ranks planned periods by row count at the requested granularity
- A large Pending count usually means the actual-date column is sparse or misnamed

METRICS RETURNED:
- total_rows, status_counts, avg/max/p50/p90 delay days, avg early days
- top_buckets: busiest planned periods with counts
- Use the where and status inputs to scope the summary to a slice`
}

func describeClassifyRows() string {
	return `Classifies each row of a dataset against its planned and actual dates and returns a bounded preview.

USE WHEN:
- Verifying the date columns parse and classify the way you expect
- Inspecting the concrete rows behind a Delayed or Pending count
- Debugging why a tree or KPI result looks off
- Sampling a dataset before building larger aggregations

INTERPRETING RESULTS:
- Early: actual before planned; On-Time: equal at the granularity; Delayed: actual after planned
- Pending: planned date present but no parseable actual date
- delay_days is actual minus planned in days, negative when early
- Week and month granularity compare period starts, so in-period slips read On-Time
- Row numbers are 0-based positions in the loaded dataset

METRICS RETURNED:
- Per row: row index, planned and actual display values, status, delay_days
- total_rows for the whole dataset so the preview's coverage is clear
- Use status and limit inputs to page through one classification at a time`
}

func describeListColumns() string {
	return `Profiles every column of a dataset: dominant type, distinct and null counts, and example values.

USE WHEN:
- Discovering usable hierarchy or aggregation columns before building a tree
- Checking whether the expected date columns exist and hold dates
- Estimating column cardinality to pick sensible grouping levels
- Diagnosing sparse columns that would produce large No Data groups

INTERPRETING RESULTS:
- kind is the dominant non-null type: string, number, bool, time, sequence, or mapping
- High distinct counts make poor tree levels; low ones make good grouping columns
- A date column profiled as string still classifies if values parse as dates
- nulls approaching the row count means the column is mostly empty

METRICS RETURNED:
- Per column: name, kind, distinct count, null count, up to three examples
- Dataset row count`
}
